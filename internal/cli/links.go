package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/xsltmap/internal/links"
)

// LinksResult lists the source-to-target links of a mapping.
type LinksResult struct {
	Links []links.Link `json:"links"`
}

func (r LinksResult) String() string {
	if len(r.Links) == 0 {
		return "No links"
	}
	var b strings.Builder
	for i, l := range r.Links {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s -> %s", l.Source, l.Target)
	}
	return b.String()
}

// NewLinksCommand creates the links command.
func NewLinksCommand(rootOpts *RootOptions) *cobra.Command {
	docs := &DocumentOptions{}

	cmd := &cobra.Command{
		Use:   "links <xslt>",
		Short: "List source-to-target links of a mapping",
		Long: `Decode a mapping stylesheet and list the links it implies: one per
source node an expression reads, paired with the mapping item that reads it.

References that do not resolve against the source definitions are left out.

Example:
  xsltmap links --source source.yaml --target target.yaml --param cart.json mappings.xsl`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLinks(rootOpts, docs, args[0], cmd)
		},
	}
	docs.addFlags(cmd)
	docs.addDatabaseFlag(cmd)

	return cmd
}

func runLinks(opts *RootOptions, docs *DocumentOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	s, err := loadSession(cmd.Context(), docs, path)
	if err != nil {
		return failLoad(formatter, err)
	}

	result := LinksResult{Links: s.Links()}
	if result.Links == nil {
		result.Links = []links.Link{}
	}
	formatter.VerboseLog("Found %d link(s)", len(result.Links))
	return formatter.Success(result)
}
