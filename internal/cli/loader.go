package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/xsltmap/internal/document"
	"github.com/roach88/xsltmap/internal/session"
	"github.com/roach88/xsltmap/internal/store"
	"github.com/roach88/xsltmap/internal/xslt"
)

// LoadError represents an input loading error with a CLI error code.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// DocumentOptions holds the document definition flags of commands that
// decode mappings.
type DocumentOptions struct {
	Source string
	Target string
	Params []string
	// Database supplies stored definitions for documents not given as files.
	Database string
}

func (o *DocumentOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Target, "target", "", "target body definition (.yaml|.cue|.json)")
	cmd.Flags().StringVar(&o.Source, "source", "", "source body definition (.yaml|.cue|.json)")
	cmd.Flags().StringArrayVar(&o.Params, "param", nil, "parameter definition, repeatable")
}

// addDatabaseFlag registers --db for commands that can read definitions
// saved by the save command.
func (o *DocumentOptions) addDatabaseFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Database, "db", "", "SQLite database with stored definitions")
}

// newSession builds a session from the definition flags for the stylesheet
// text. Documents without a definition file are loaded from the database
// when one is given. A body without any definition stays primitive.
func (o *DocumentOptions) newSession(ctx context.Context, text string, opts ...session.Option) (*session.Session, error) {
	var source, target document.Document
	var err error
	if o.Source != "" {
		if source, err = loadDocument(o.Source, document.SourceBody); err != nil {
			return nil, err
		}
	}
	if o.Target != "" {
		if target, err = loadDocument(o.Target, document.TargetBody); err != nil {
			return nil, err
		}
	}
	given := map[string]bool{}
	for _, path := range o.Params {
		param, err := loadDocument(path, document.Param)
		if err != nil {
			return nil, err
		}
		given[param.DocumentID()] = true
		opts = append(opts, session.WithParameter(param))
	}

	if o.Database != "" {
		st, err := store.Open(o.Database)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeStore, Message: err.Error()}
		}
		defer st.Close()

		if source == nil {
			if source, err = storedDocument(ctx, st, document.SourceBody, document.BodyID); err != nil {
				return nil, err
			}
		}
		if target == nil {
			if target, err = storedDocument(ctx, st, document.TargetBody, document.BodyID); err != nil {
				return nil, err
			}
		}
		names, err := xslt.DeclaredParams(text)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeMalformedXSLT, Message: err.Error()}
		}
		for _, name := range names {
			if given[name] {
				continue
			}
			param, err := storedDocument(ctx, st, document.Param, name)
			if err != nil {
				return nil, err
			}
			if param != nil {
				opts = append(opts, session.WithParameter(param))
			}
		}
	}
	return session.New(source, target, opts...), nil
}

// storedDocument builds the stored definition of a document. It returns nil
// when none was saved.
func storedDocument(ctx context.Context, st *store.Store, documentType document.Type, documentID string) (document.Document, error) {
	def, err := st.LoadDefinition(ctx, documentType, documentID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeStore, Message: err.Error()}
	}
	doc, err := def.Build()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidDefinition, Message: err.Error()}
	}
	return doc, nil
}

// loadDocument reads a definition file and builds the document, checking
// that it has the expected type.
func loadDocument(path string, want document.Type) (document.Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("definition not found: %s", path)}
	}
	def, err := document.LoadDefinition(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidDefinition, Message: err.Error()}
	}
	if def.Type != want {
		return nil, &LoadError{
			Code:    ErrCodeWrongDocument,
			Message: fmt.Sprintf("%s defines a %s document, expected %s", path, def.Type, want),
		}
	}
	doc, err := def.Build()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidDefinition, Message: err.Error()}
	}
	return doc, nil
}

// readMappings reads a stylesheet file.
func readMappings(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("mappings not found: %s", path)}
	}
	if err != nil {
		return "", &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("reading mappings: %v", err)}
	}
	return string(data), nil
}

// loadSession builds the session and imports the stylesheet at path.
func loadSession(ctx context.Context, o *DocumentOptions, path string, opts ...session.Option) (*session.Session, error) {
	text, err := readMappings(path)
	if err != nil {
		return nil, err
	}
	s, err := o.newSession(ctx, text, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.ImportMappings(text); err != nil {
		if errors.Is(err, xslt.ErrMalformed) {
			return nil, &LoadError{Code: ErrCodeMalformedXSLT, Message: err.Error()}
		}
		return nil, err
	}
	return s, nil
}

// failLoad outputs a loading error as a command error.
func failLoad(f *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return f.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
	}
	return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}
