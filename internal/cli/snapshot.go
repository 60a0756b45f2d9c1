package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/xsltmap/internal/document"
	"github.com/roach88/xsltmap/internal/session"
	"github.com/roach88/xsltmap/internal/store"
)

// StoreOptions holds flags shared by the snapshot commands.
type StoreOptions struct {
	Database string
	Name     string
}

func (o *StoreOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&o.Name, "name", "", "mapping name (required)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("name")
}

// SaveResult reports a saved snapshot.
type SaveResult struct {
	Name        string `json:"name"`
	Seq         int64  `json:"seq"`
	ContentHash string `json:"content_hash"`
	Inserted    bool   `json:"inserted"`
}

func (r SaveResult) String() string {
	if !r.Inserted {
		return fmt.Sprintf("Unchanged %s@%d (%s)", r.Name, r.Seq, shortHash(r.ContentHash))
	}
	return fmt.Sprintf("Saved %s@%d (%s)", r.Name, r.Seq, shortHash(r.ContentHash))
}

// HistoryResult lists the snapshots of a mapping, oldest first.
type HistoryResult struct {
	Name      string           `json:"name"`
	Snapshots []store.Snapshot `json:"snapshots"`
}

func (r HistoryResult) String() string {
	if len(r.Snapshots) == 0 {
		return fmt.Sprintf("No snapshots for %s", r.Name)
	}
	var b strings.Builder
	for i, snap := range r.Snapshots {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s@%d  %s", r.Name, snap.Seq, snap.ContentHash)
	}
	return b.String()
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{}
	docs := &DocumentOptions{}

	cmd := &cobra.Command{
		Use:   "save <xslt>",
		Short: "Save a mapping snapshot",
		Long: `Append a stylesheet to the history of a named mapping.

Saving the same content as the latest snapshot is a no-op. When a target
definition is given the stylesheet is decoded and encoded again before it
is saved, and the definitions of all given documents are stored alongside.

Example:
  xsltmap save --db ./xsltmap.db --name orders mappings.xsl
  xsltmap save --db ./xsltmap.db --name orders --target target.yaml mappings.xsl`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(rootOpts, opts, docs, args[0], cmd)
		},
	}
	opts.addFlags(cmd)
	docs.addFlags(cmd)

	return cmd
}

func runSave(rootOpts *RootOptions, opts *StoreOptions, docs *DocumentOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)
	ctx := cmd.Context()

	text, err := readMappings(path)
	if err != nil {
		return failLoad(formatter, err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	if docs.Target != "" {
		s, err := loadSession(cmd.Context(), docs, path)
		if err != nil {
			return failLoad(formatter, err)
		}
		if text, err = s.ExportMappings(); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeEncodeFailed, err.Error(), nil)
		}

		saved := []string{}
		for _, doc := range sessionDocuments(s, docs) {
			if err := st.SaveDefinition(ctx, doc); err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
			}
			saved = append(saved, document.Describe(doc))
		}
		formatter.VerboseLog("Saved definitions: %s", strings.Join(saved, ", "))
	}

	snap, inserted, err := st.SaveMapping(ctx, opts.Name, text)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	return formatter.Success(SaveResult{
		Name:        snap.Name,
		Seq:         snap.Seq,
		ContentHash: snap.ContentHash,
		Inserted:    inserted,
	})
}

// sessionDocuments returns the documents to store with a snapshot, including
// fields and parameters created while decoding.
func sessionDocuments(s *session.Session, docs *DocumentOptions) []document.Document {
	var out []document.Document
	if docs.Source != "" {
		out = append(out, s.SourceBody())
	}
	out = append(out, s.TargetBody())
	for _, name := range s.ParameterNames() {
		if param, ok := s.Parameter(name); ok {
			out = append(out, param)
		}
	}
	return out
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{}
	var seq int64

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print a saved mapping snapshot",
		Long: `Print the stylesheet of a named mapping, the latest snapshot unless
--seq selects an earlier one.

Example:
  xsltmap export --db ./xsltmap.db --name orders > mappings.xsl
  xsltmap export --db ./xsltmap.db --name orders --seq 2`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, opts, seq, cmd)
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().Int64Var(&seq, "seq", 0, "snapshot sequence number (default latest)")

	return cmd
}

func runExport(rootOpts *RootOptions, opts *StoreOptions, seq int64, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)
	ctx := cmd.Context()

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	var snap store.Snapshot
	if seq > 0 {
		history, err := st.MappingHistory(ctx, opts.Name)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		found := false
		for _, h := range history {
			if h.Seq == seq {
				snap, found = h, true
				break
			}
		}
		if !found {
			return formatter.Fail(ExitCommandError, ErrCodeNoSnapshot, fmt.Sprintf("no snapshot %s@%d", opts.Name, seq), nil)
		}
	} else {
		snap, err = st.LatestMapping(ctx, opts.Name)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return formatter.Fail(ExitCommandError, ErrCodeNoSnapshot, fmt.Sprintf("no snapshot for %s", opts.Name), nil)
			}
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
	}

	formatter.VerboseLog("Exporting %s@%d", snap.Name, snap.Seq)
	return formatter.Success(RoundtripResult{XSLT: snap.XSLT})
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the snapshots of a mapping",
		Long: `List the saved snapshots of a named mapping, oldest first.

Example:
  xsltmap history --db ./xsltmap.db --name orders`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, opts, cmd)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func runHistory(rootOpts *RootOptions, opts *StoreOptions, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	history, err := st.MappingHistory(cmd.Context(), opts.Name)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	return formatter.Success(HistoryResult{Name: opts.Name, Snapshots: history})
}
