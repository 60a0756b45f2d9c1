package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns what it wrote to
// stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "xsltmap", cmd.Use)
	assert.Contains(t, cmd.Long, "XSLT 1.0")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"roundtrip", "links", "update-document", "validate", "save", "export", "history"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestDocumentFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"roundtrip", "links", "update-document", "validate", "save"} {
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{name})
			require.NoError(t, err)

			for _, flag := range []string{"source", "target"} {
				f := subCmd.Flags().Lookup(flag)
				require.NotNil(t, f, "--%s", flag)
				assert.Equal(t, "", f.DefValue)
			}
			param := subCmd.Flags().Lookup("param")
			require.NotNil(t, param)
			assert.Equal(t, "stringArray", param.Value.Type())
		})
	}
}

func TestUpdateDocumentCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	updateCmd, _, err := cmd.Find([]string{"update-document"})
	require.NoError(t, err)

	replaceFlag := updateCmd.Flags().Lookup("replace")
	require.NotNil(t, replaceFlag)
	assert.Equal(t, []string{"true"}, replaceFlag.Annotations["cobra_annotation_bash_completion_one_required_flag"])
}

func TestStoreCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"save", "export", "history"} {
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{name})
			require.NoError(t, err)

			dbFlag := subCmd.Flags().Lookup("db")
			require.NotNil(t, dbFlag)
			// --db is required, so default is empty
			assert.Equal(t, "", dbFlag.DefValue)

			require.NotNil(t, subCmd.Flags().Lookup("name"))
		})
	}

	exportCmd, _, err := cmd.Find([]string{"export"})
	require.NoError(t, err)
	seqFlag := exportCmd.Flags().Lookup("seq")
	require.NotNil(t, seqFlag)
	assert.Equal(t, "0", seqFlag.DefValue)
}

func TestDefinitionDatabaseFlag(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"roundtrip", "links", "update-document", "validate"} {
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{name})
			require.NoError(t, err)

			dbFlag := subCmd.Flags().Lookup("db")
			require.NotNil(t, dbFlag)
			assert.Equal(t, "", dbFlag.DefValue)
			assert.Empty(t, dbFlag.Annotations, "--db is optional")
		})
	}
}

func TestMissingRequiredFlags(t *testing.T) {
	_, err := execute(t, "history", "--db", "x.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"name"`)
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	_, err := execute(t, "--format", "invalid", "roundtrip", "testdata/shiporder.xsl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
