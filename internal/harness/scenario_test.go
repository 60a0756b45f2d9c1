package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/stale_source_field.yaml")
	require.NoError(t, err)

	assert.Equal(t, "stale_source_field", scenario.Name)
	assert.Equal(t, filepath.Join("testdata", "documents", "source.yaml"), scenario.Documents.Source)
	assert.Equal(t, []string{filepath.Join("testdata", "documents", "discount.yaml")}, scenario.Documents.Params)
	assert.Equal(t, filepath.Join("testdata", "documents", "invoice.xsl"), scenario.Mappings)

	require.Len(t, scenario.Steps, 1)
	assert.Equal(t, OpUpdateDocument, scenario.Steps[0].Op)
	assert.Equal(t, filepath.Join("testdata", "documents", "source_no_title.yaml"), scenario.Steps[0].Definition)
	assert.Equal(t, "remove-stale", scenario.Steps[0].ExpectPolicy)

	require.Len(t, scenario.Assertions, 6)
	assert.Equal(t, AssertExpressionAbsent, scenario.Assertions[0].Type)
	assert.Equal(t, "Title", scenario.Assertions[0].Expression)
}

func TestLoadScenario_AllFixtures(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			_, err := LoadScenario(path)
			assert.NoError(t, err)
		})
	}
}

func TestLoadScenario_AbsolutePathsKept(t *testing.T) {
	mappings, err := filepath.Abs("testdata/documents/invoice.xsl")
	require.NoError(t, err)

	path := writeScenario(t, t.TempDir(), `
name: absolute
description: "absolute paths"
mappings: `+mappings+`
assertions:
  - type: link_count
    count: 0
`)
	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, mappings, scenario.Mappings)
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, t.TempDir(), `
name: typo
description: "typo"
mappings: x.xsl
assertion:
  - type: link_count
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	xsl, err := filepath.Abs("testdata/documents/invoice.xsl")
	require.NoError(t, err)

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing_name",
			content: "description: d\nmappings: " + xsl + "\nassertions: [{type: link_count}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing_description",
			content: "name: n\nmappings: " + xsl + "\nassertions: [{type: link_count}]\n",
			wantErr: "description is required",
		},
		{
			name:    "missing_mappings",
			content: "name: n\ndescription: d\nassertions: [{type: link_count}]\n",
			wantErr: "mappings is required",
		},
		{
			name:    "no_assertions",
			content: "name: n\ndescription: d\nmappings: " + xsl + "\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "mappings_not_found",
			content: "name: n\ndescription: d\nmappings: none.xsl\nassertions: [{type: link_count}]\n",
			wantErr: "file not found",
		},
		{
			name:    "unknown_op",
			content: "name: n\ndescription: d\nmappings: " + xsl + "\nsteps: [{op: rename}]\nassertions: [{type: link_count}]\n",
			wantErr: `unknown op "rename"`,
		},
		{
			name:    "update_without_definition",
			content: "name: n\ndescription: d\nmappings: " + xsl + "\nsteps: [{op: update_document}]\nassertions: [{type: link_count}]\n",
			wantErr: "definition is required",
		},
		{
			name:    "policy_on_wrong_op",
			content: "name: n\ndescription: d\nmappings: " + xsl + "\nsteps: [{op: add_parameter, name: p, expect_policy: remove-all}]\nassertions: [{type: link_count}]\n",
			wantErr: "expect_policy only applies",
		},
		{
			name:    "expression_missing",
			content: "name: n\ndescription: d\nmappings: " + xsl + "\nassertions: [{type: expression_present}]\n",
			wantErr: "expression is required",
		},
		{
			name:    "unknown_assertion",
			content: "name: n\ndescription: d\nmappings: " + xsl + "\nassertions: [{type: trace_order}]\n",
			wantErr: `unknown assertion type "trace_order"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, t.TempDir(), tt.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
