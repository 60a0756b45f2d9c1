package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/xsltmap/internal/mapping"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool              `json:"valid"`
	Items      int               `json:"items"`
	Params     []string          `json:"params,omitempty"`
	Namespaces map[string]string `json:"namespaces,omitempty"`
	Errors     []string          `json:"errors,omitempty"`
}

func (r ValidationResult) String() string {
	return fmt.Sprintf("✓ Mapping valid (%d items, %d params)", r.Items, len(r.Params))
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	docs := &DocumentOptions{}

	cmd := &cobra.Command{
		Use:   "validate <xslt>",
		Short: "Check that a stylesheet decodes into a well formed mapping",
		Long: `Decode a mapping stylesheet and check the shape of the mapping tree.

Every choose must hold when branches followed by at most one otherwise, and
when/otherwise branches must sit directly under a choose. Decoding itself
accepts any shape, so this is where malformed branches are reported.

Example:
  xsltmap validate --target target.yaml mappings.xsl`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, docs, args[0], cmd)
		},
	}
	docs.addFlags(cmd)
	docs.addDatabaseFlag(cmd)

	return cmd
}

func runValidate(opts *RootOptions, docs *DocumentOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	s, err := loadSession(cmd.Context(), docs, path)
	if err != nil {
		return failLoad(formatter, err)
	}

	tree := s.Tree()
	result := ValidationResult{
		Valid:      true,
		Params:     s.ParameterNames(),
		Namespaces: tree.Namespaces,
	}
	mapping.Walk(tree, func(*mapping.Item) bool {
		result.Items++
		return true
	})
	formatter.VerboseLog("Decoded %d item(s) from %s", result.Items, path)

	if err := mapping.ValidateShape(tree); err != nil {
		result.Valid = false
		result.Errors = shapeErrors(err)
		return outputValidationErrors(formatter, result)
	}
	return formatter.Success(result)
}

// shapeErrors flattens the joined errors of ValidateShape.
func shapeErrors(err error) []string {
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) {
		return []string{err.Error()}
	}
	var out []string
	for _, e := range joined.Unwrap() {
		out = append(out, e.Error())
	}
	return out
}

// outputValidationErrors outputs every shape error and fails with ExitFailure.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    ErrCodeInvalidShape,
				Message: result.Errors[0],
			},
		}
		if err := json.NewEncoder(formatter.Writer).Encode(response); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "✗ Mapping invalid (%d error(s))\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(formatter.Writer, "  [%s] %s\n", ErrCodeInvalidShape, e)
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", ErrCodeInvalidShape, strings.Join(result.Errors, "; ")))
}
