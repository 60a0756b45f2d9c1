package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/xsltmap/internal/document"
)

// UpdateOptions holds flags for the update-document command.
type UpdateOptions struct {
	DocumentOptions
	Replace string
}

// UpdateResult is the stylesheet after a document replacement.
type UpdateResult struct {
	Document string `json:"document"`
	Policy   string `json:"policy"`
	XSLT     string `json:"xslt"`
}

func (r UpdateResult) String() string {
	return strings.TrimSuffix(r.XSLT, "\n")
}

// NewUpdateDocumentCommand creates the update-document command.
func NewUpdateDocumentCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{}

	cmd := &cobra.Command{
		Use:   "update-document <xslt>",
		Short: "Replace a document and prune the mappings that no longer apply",
		Long: `Decode a mapping stylesheet, replace one of its documents with a new
definition and print the resulting stylesheet.

The definition's type and id select the document to replace. When either
the old or the new document is primitive every mapping that references the
document is removed. Otherwise only mappings whose fields no longer exist
are removed, and the rest are kept.

Example:
  xsltmap update-document --source old.yaml --target target.yaml --replace new.yaml mappings.xsl`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdateDocument(rootOpts, opts, args[0], cmd)
		},
	}
	opts.addFlags(cmd)
	opts.addDatabaseFlag(cmd)
	cmd.Flags().StringVar(&opts.Replace, "replace", "", "replacement document definition (required)")
	_ = cmd.MarkFlagRequired("replace")

	return cmd
}

func runUpdateDocument(opts *RootOptions, upd *UpdateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	s, err := loadSession(cmd.Context(), &upd.DocumentOptions, path)
	if err != nil {
		return failLoad(formatter, err)
	}

	replacement, err := loadReplacement(upd.Replace)
	if err != nil {
		return failLoad(formatter, err)
	}

	policy, err := s.UpdateDocument(replacement)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	formatter.VerboseLog("Replaced %s using policy %s", document.Describe(replacement), policy)

	text, err := s.ExportMappings()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeEncodeFailed, err.Error(), nil)
	}
	return formatter.Success(UpdateResult{
		Document: document.Describe(replacement),
		Policy:   policy.String(),
		XSLT:     text,
	})
}

// loadReplacement loads a definition of any document type.
func loadReplacement(path string) (document.Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("definition not found: %s", path)}
	}
	def, err := document.LoadDefinition(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidDefinition, Message: fmt.Sprintf("replacement: %v", err)}
	}
	return loadDocument(path, def.Type)
}
