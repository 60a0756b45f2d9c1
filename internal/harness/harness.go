package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/xsltmap/internal/document"
	"github.com/roach88/xsltmap/internal/mapping"
	"github.com/roach88/xsltmap/internal/session"
	"github.com/roach88/xsltmap/internal/store"
)

// Harness executes one scenario.
type Harness struct {
	store   *store.Store
	session *session.Session
	name    string
	ctx     context.Context
	logger  *slog.Logger

	// saveErrors collects store failures raised from the update callback.
	saveErrors []string
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database. Setup failures (an
// unreadable definition or stylesheet) are returned as errors; step and
// assertion failures are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		name:   scenario.Name,
		ctx:    context.Background(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if err := h.openSession(scenario.Documents); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(scenario.Mappings)
	if err != nil {
		return nil, fmt.Errorf("failed to read mappings: %w", err)
	}
	if err := h.session.ImportMappings(string(data)); err != nil {
		return nil, fmt.Errorf("failed to import mappings: %w", err)
	}

	result := NewResult()
	result.addTrace(TraceEvent{Op: OpImport, Detail: filepath.Base(scenario.Mappings), Items: h.items()})

	for i, step := range scenario.Steps {
		h.executeStep(i, step, result)
	}
	for _, msg := range h.saveErrors {
		result.AddError(msg)
	}

	if result.XSLT, err = h.session.ExportMappings(); err != nil {
		return nil, fmt.Errorf("failed to export mappings: %w", err)
	}

	actx := &AssertionContext{
		Session: h.session,
		Store:   st,
		Ctx:     h.ctx,
		Name:    scenario.Name,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

func (h *Harness) openSession(docs Documents) error {
	source, err := loadDefinition(docs.Source, document.SourceBody)
	if err != nil {
		return err
	}
	target, err := loadDefinition(docs.Target, document.TargetBody)
	if err != nil {
		return err
	}

	opts := []session.Option{session.WithOnUpdate(h.record)}
	for _, path := range docs.Params {
		param, err := loadDefinition(path, document.Param)
		if err != nil {
			return err
		}
		opts = append(opts, session.WithParameter(param))
	}
	h.session = session.New(source, target, opts...)
	return nil
}

// record saves every published stylesheet as a snapshot.
func (h *Harness) record(text string) {
	snap, inserted, err := h.store.SaveMapping(h.ctx, h.name, text)
	if err != nil {
		h.saveErrors = append(h.saveErrors, fmt.Sprintf("recording snapshot: %v", err))
		return
	}
	h.logger.Debug("snapshot recorded", "name", h.name, "seq", snap.Seq, "inserted", inserted)
}

// executeStep applies one step. Failures are added to result rather than
// stopping the run.
func (h *Harness) executeStep(index int, step Step, result *Result) {
	ev := TraceEvent{Op: step.Op}
	var err error

	switch step.Op {
	case OpUpdateDocument:
		ev.Detail = filepath.Base(step.Definition)
		var doc document.Document
		if doc, err = loadDefinition(step.Definition, ""); err == nil {
			policy, updErr := h.session.UpdateDocument(doc)
			if err = updErr; err == nil {
				ev.Policy = policy.String()
			}
		}
		if err == nil && step.ExpectPolicy != "" && ev.Policy != step.ExpectPolicy {
			result.AddError(fmt.Sprintf("steps[%d] %s: expected policy %s, got %s", index, step.Op, step.ExpectPolicy, ev.Policy))
		}
	case OpAddParameter:
		ev.Detail = step.Name
		err = h.session.AddParameter(step.Name)
	case OpDeleteParameter:
		ev.Detail = step.Name
		err = h.session.DeleteParameter(step.Name)
	case OpImport:
		ev.Detail = filepath.Base(step.Mappings)
		var data []byte
		if data, err = os.ReadFile(step.Mappings); err == nil {
			err = h.session.ImportMappings(string(data))
		}
	default:
		err = fmt.Errorf("unknown op %q", step.Op)
	}

	if err != nil {
		ev.Error = err.Error()
	}
	switch {
	case err != nil && !step.ExpectError:
		result.AddError(fmt.Sprintf("steps[%d] %s: %v", index, step.Op, err))
	case err == nil && step.ExpectError:
		result.AddError(fmt.Sprintf("steps[%d] %s: expected an error", index, step.Op))
	}

	ev.Items = h.items()
	h.logger.Debug("step executed", "index", index, "op", step.Op, "error", ev.Error)
	result.addTrace(ev)
}

func (h *Harness) items() int {
	n := 0
	mapping.Walk(h.session.Tree(), func(*mapping.Item) bool {
		n++
		return true
	})
	return n
}

// loadDefinition builds the document defined at path. An empty path yields
// nil; an empty want accepts any document type.
func loadDefinition(path string, want document.Type) (document.Document, error) {
	if path == "" {
		return nil, nil
	}
	def, err := document.LoadDefinition(path)
	if err != nil {
		return nil, err
	}
	if want != "" && def.Type != want {
		return nil, fmt.Errorf("%s defines a %s document, expected %s", path, def.Type, want)
	}
	return def.Build()
}
