package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	shipOrderXSL  = "testdata/shiporder.xsl"
	sourceDef     = "testdata/source.cue"
	targetDef     = "testdata/target.yaml"
	cartDef       = "testdata/cart.json"
	invalidChoose = "testdata/invalid_choose.xsl"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

// decodeResponse unmarshals a JSON response, decoding its data into data.
func decodeResponse(t *testing.T, out string, data interface{}) CLIResponse {
	t.Helper()
	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), out)
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return CLIResponse{Status: raw.Status, Error: raw.Error}
}

func TestRoundtrip(t *testing.T) {
	out, err := execute(t, "roundtrip", "--target", targetDef, shipOrderXSL)
	require.NoError(t, err)

	newGoldie(t).Assert(t, "roundtrip", []byte(out))
}

func TestRoundtrip_Idempotent(t *testing.T) {
	first, err := execute(t, "roundtrip", "--target", targetDef, shipOrderXSL)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "normalized.xsl")
	require.NoError(t, os.WriteFile(path, []byte(first), 0o644))

	second, err := execute(t, "roundtrip", "--target", targetDef, path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRoundtrip_JSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "roundtrip", "--target", targetDef, shipOrderXSL)
	require.NoError(t, err)

	var result RoundtripResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []string{"cart", "orderId"}, result.Params)
	assert.Contains(t, result.XSLT, `<xsl:for-each select="/ns0:ShipOrder/Item">`)
}

func TestRoundtrip_Errors(t *testing.T) {
	dir := t.TempDir()
	malformed := filepath.Join(dir, "broken.xsl")
	require.NoError(t, os.WriteFile(malformed, []byte("<xsl:stylesheet"), 0o644))

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"missing_mappings", []string{"roundtrip", filepath.Join(dir, "none.xsl")}, ErrCodeNotFound},
		{"missing_definition", []string{"roundtrip", "--target", filepath.Join(dir, "none.yaml"), shipOrderXSL}, ErrCodeNotFound},
		{"wrong_document", []string{"roundtrip", "--target", sourceDef, shipOrderXSL}, ErrCodeWrongDocument},
		{"malformed", []string{"roundtrip", malformed}, ErrCodeMalformedXSLT},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"--format", "json"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			resp := decodeResponse(t, out, nil)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestRoundtrip_InvalidDefinition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target.yaml")
	require.NoError(t, os.WriteFile(path, []byte("type: targetBody\nprimitive: true\nfields:\n  - name: X\n"), 0o644))

	out, err := execute(t, "roundtrip", "--target", path, shipOrderXSL)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E101]")
}

func TestLinks(t *testing.T) {
	out, err := execute(t, "--format", "json", "links",
		"--source", sourceDef, "--target", targetDef, "--param", cartDef, shipOrderXSL)
	require.NoError(t, err)

	var result LinksResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)

	var sources, targets []string
	for _, l := range result.Links {
		sources = append(sources, l.Source.String())
		targets = append(targets, l.Target.String())
	}
	assert.Equal(t, []string{
		"sourceBody:Body://ShipOrder/@OrderId",
		"sourceBody:Body://ShipOrder/Item",
		"sourceBody:Body://ShipOrder/Item/Title",
		"param:cart://Total",
		"param:orderId://",
	}, sources)
	require.Len(t, targets, 5)
	assert.True(t, strings.HasPrefix(targets[0], "targetBody:Body://Shipment/@Id/valueSelector-"), targets[0])
	assert.True(t, strings.HasPrefix(targets[1], "targetBody:Body://Shipment/forEach-"), targets[1])
}

func TestLinks_Text(t *testing.T) {
	out, err := execute(t, "links", "--source", sourceDef, "--target", targetDef, shipOrderXSL)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "sourceBody:Body://ShipOrder/@OrderId -> "), lines[0])
	assert.True(t, strings.HasPrefix(lines[3], "param:orderId:// -> "), lines[3])
}

func TestLinks_None(t *testing.T) {
	out, err := execute(t, "links", "--target", targetDef, filepath.Join("..", "xslt", "testdata", "golden", "empty.golden"))
	require.NoError(t, err)
	assert.Equal(t, "No links\n", out)
}

func TestUpdateDocument_PrimitiveSource(t *testing.T) {
	out, err := execute(t, "update-document",
		"--source", sourceDef, "--target", targetDef, "--replace", "testdata/source_primitive.yaml", shipOrderXSL)
	require.NoError(t, err)

	newGoldie(t).Assert(t, "update_primitive_source", []byte(out))
}

func TestUpdateDocument_StaleField(t *testing.T) {
	out, err := execute(t, "--format", "json", "update-document",
		"--source", sourceDef, "--target", targetDef, "--replace", "testdata/source_no_title.yaml", shipOrderXSL)
	require.NoError(t, err)

	var result UpdateResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "remove-stale", result.Policy)
	assert.Contains(t, result.Document, "sourceBody")
	assert.Contains(t, result.XSLT, "<Title/>")
	assert.NotContains(t, result.XSLT, `select="Title"`)
	assert.Contains(t, result.XSLT, `<xsl:value-of select="/ns0:ShipOrder/@OrderId"/>`)
	assert.Contains(t, result.XSLT, `<xsl:for-each select="/ns0:ShipOrder/Item">`)
}

func TestUpdateDocument_ReplaceParam(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.yaml")
	require.NoError(t, os.WriteFile(path, []byte("type: param\nid: cart\nfields:\n  - name: Count\n"), 0o644))

	out, err := execute(t, "--format", "json", "update-document",
		"--target", targetDef, "--param", cartDef, "--replace", path, shipOrderXSL)
	require.NoError(t, err)

	var result UpdateResult
	decodeResponse(t, out, &result)
	assert.Equal(t, "remove-stale", result.Policy)
	assert.NotContains(t, result.XSLT, "$cart/Total")
	assert.Contains(t, result.XSLT, "$orderId")
}

func TestUpdateDocument_MissingReplacement(t *testing.T) {
	out, err := execute(t, "update-document", "--replace", "testdata/none.yaml", shipOrderXSL)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "validate", "--target", targetDef, shipOrderXSL)
	require.NoError(t, err)
	assert.Equal(t, "✓ Mapping valid (11 items, 2 params)\n", out)
}

func TestValidate_JSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", "--target", targetDef, shipOrderXSL)
	require.NoError(t, err)

	var result ValidationResult
	decodeResponse(t, out, &result)
	assert.True(t, result.Valid)
	assert.Equal(t, "io.kaoto.datamapper.poc.test", result.Namespaces["ns0"])
	assert.Empty(t, result.Errors)
}

func TestValidate_InvalidShape(t *testing.T) {
	out, err := execute(t, "validate", "--target", targetDef, invalidChoose)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "✗ Mapping invalid (2 error(s))")
	assert.Contains(t, out, "[E111]")
	assert.Contains(t, out, "when outside choose")
	assert.Contains(t, out, "when after otherwise")
}

func TestValidate_InvalidShapeJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", "--target", targetDef, invalidChoose)
	require.Error(t, err)

	var result ValidationResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeInvalidShape, resp.Error.Code)
	assert.False(t, result.Valid)
	assert.Len(t, result.Errors, 2)
}

func TestSaveExportHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "xsltmap.db")
	raw, err := os.ReadFile(shipOrderXSL)
	require.NoError(t, err)

	out, err := execute(t, "save", "--db", db, "--name", "orders", shipOrderXSL)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Saved orders@1 ("), out)

	out, err = execute(t, "save", "--db", db, "--name", "orders", shipOrderXSL)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Unchanged orders@1 ("), out)

	// Normalizing through the target definition changes the content.
	out, err = execute(t, "--format", "json", "save", "--db", db, "--name", "orders",
		"--source", sourceDef, "--target", targetDef, "--param", cartDef, shipOrderXSL)
	require.NoError(t, err)
	var saved SaveResult
	decodeResponse(t, out, &saved)
	assert.True(t, saved.Inserted)
	assert.Equal(t, int64(2), saved.Seq)

	out, err = execute(t, "export", "--db", db, "--name", "orders", "--seq", "1")
	require.NoError(t, err)
	assert.Equal(t, string(raw), out)

	golden, err := os.ReadFile(filepath.Join("testdata", "golden", "roundtrip.golden"))
	require.NoError(t, err)
	out, err = execute(t, "export", "--db", db, "--name", "orders")
	require.NoError(t, err)
	assert.Equal(t, string(golden), out)

	out, err = execute(t, "--format", "json", "history", "--db", db, "--name", "orders")
	require.NoError(t, err)
	var history HistoryResult
	decodeResponse(t, out, &history)
	require.Len(t, history.Snapshots, 2)
	assert.Equal(t, int64(1), history.Snapshots[0].Seq)
	assert.Equal(t, saved.ContentHash, history.Snapshots[1].ContentHash)
}

func TestStoredDefinitions(t *testing.T) {
	db := filepath.Join(t.TempDir(), "xsltmap.db")

	_, err := execute(t, "save", "--db", db, "--name", "orders",
		"--source", sourceDef, "--target", targetDef, "--param", cartDef, shipOrderXSL)
	require.NoError(t, err)

	fromFiles, err := execute(t, "links", "--source", sourceDef, "--target", targetDef, "--param", cartDef, shipOrderXSL)
	require.NoError(t, err)
	fromStore, err := execute(t, "links", "--db", db, shipOrderXSL)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(fromStore), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, sourcesOf(fromFiles), sourcesOf(fromStore))

	out, err := execute(t, "roundtrip", "--db", db, shipOrderXSL)
	require.NoError(t, err)
	newGoldie(t).Assert(t, "roundtrip", []byte(out))

	// A definition file takes precedence over the stored one.
	out, err = execute(t, "links", "--db", db, "--source", "testdata/source_primitive.yaml", shipOrderXSL)
	require.NoError(t, err)
	assert.Equal(t, []string{"param:cart://Total", "param:orderId://"}, sourcesOf(out))
}

func TestStoredDefinitions_EmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "xsltmap.db")

	out, err := execute(t, "links", "--db", db, "--target", targetDef, shipOrderXSL)
	require.NoError(t, err)
	assert.Equal(t, []string{"param:orderId://"}, sourcesOf(out))
}

// sourcesOf returns the source path of each line of a text links listing.
func sourcesOf(out string) []string {
	var sources []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		source, _, _ := strings.Cut(line, " -> ")
		sources = append(sources, source)
	}
	return sources
}

func TestExport_NoSnapshot(t *testing.T) {
	db := filepath.Join(t.TempDir(), "xsltmap.db")

	out, err := execute(t, "export", "--db", db, "--name", "orders")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E202]: no snapshot for orders")

	_, err = execute(t, "save", "--db", db, "--name", "orders", shipOrderXSL)
	require.NoError(t, err)

	out, err = execute(t, "export", "--db", db, "--name", "orders", "--seq", "5")
	require.Error(t, err)
	assert.Contains(t, out, "no snapshot orders@5")
}

func TestHistory_Empty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "xsltmap.db")

	out, err := execute(t, "history", "--db", db, "--name", "orders")
	require.NoError(t, err)
	assert.Equal(t, "No snapshots for orders\n", out)
}

func TestResultStrings(t *testing.T) {
	hash := strings.Repeat("ab", 32)

	assert.Equal(t, "Saved orders@3 (abababababab)", SaveResult{Name: "orders", Seq: 3, ContentHash: hash, Inserted: true}.String())
	assert.Equal(t, "Unchanged orders@3 (abababababab)", SaveResult{Name: "orders", Seq: 3, ContentHash: hash}.String())
	assert.Equal(t, "short", shortHash("short"))
	assert.Equal(t, "<a/>", RoundtripResult{XSLT: "<a/>\n"}.String())
}
