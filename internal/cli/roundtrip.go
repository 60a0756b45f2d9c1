package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// RoundtripResult is the re-encoded stylesheet.
type RoundtripResult struct {
	XSLT   string   `json:"xslt"`
	Params []string `json:"params,omitempty"`
}

func (r RoundtripResult) String() string {
	return strings.TrimSuffix(r.XSLT, "\n")
}

// NewRoundtripCommand creates the roundtrip command.
func NewRoundtripCommand(rootOpts *RootOptions) *cobra.Command {
	docs := &DocumentOptions{}

	cmd := &cobra.Command{
		Use:   "roundtrip <xslt>",
		Short: "Decode a stylesheet and encode it again",
		Long: `Decode a mapping stylesheet against the target document and print the
stylesheet encoded from the resulting mapping tree.

Target fields named by the stylesheet but missing from the definition are
created. The output is deterministic, so running roundtrip on its own output
reproduces it byte for byte.

Example:
  xsltmap roundtrip --target target.yaml mappings.xsl`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoundtrip(rootOpts, docs, args[0], cmd)
		},
	}
	docs.addFlags(cmd)
	docs.addDatabaseFlag(cmd)

	return cmd
}

func runRoundtrip(opts *RootOptions, docs *DocumentOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	s, err := loadSession(cmd.Context(), docs, path)
	if err != nil {
		return failLoad(formatter, err)
	}
	formatter.VerboseLog("Decoded %d top-level item(s) from %s", len(s.Tree().Children()), path)

	text, err := s.ExportMappings()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeEncodeFailed, err.Error(), nil)
	}
	return formatter.Success(RoundtripResult{XSLT: text, Params: s.ParameterNames()})
}
