package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/xsltmap/internal/mapping"
	"github.com/roach88/xsltmap/internal/session"
	"github.com/roach88/xsltmap/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Steps that led here
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nSteps:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s", ev.Seq, ev.Op, ev.Detail)
			if ev.Policy != "" {
				fmt.Fprintf(&buf, " (%s)", ev.Policy)
			}
			if ev.Error != "" {
				fmt.Fprintf(&buf, " error: %s", ev.Error)
			}
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// AssertionContext provides what assertions inspect.
type AssertionContext struct {
	Session *session.Session
	Store   *store.Store
	Ctx     context.Context
	Name    string // snapshot history name
}

// expressions returns the expressions of all items in tree order.
func expressions(tree *mapping.Tree) []string {
	var out []string
	mapping.Walk(tree, func(item *mapping.Item) bool {
		if item.HasExpression() {
			out = append(out, item.Expression)
		}
		return true
	})
	return out
}

func assertExpression(tree *mapping.Tree, assertion Assertion, trace []TraceEvent) error {
	all := expressions(tree)
	found := slices.Contains(all, assertion.Expression)
	want := assertion.Type == AssertExpressionPresent
	if found == want {
		return nil
	}

	expected := fmt.Sprintf("an item with expression %q", assertion.Expression)
	if !want {
		expected = fmt.Sprintf("no item with expression %q", assertion.Expression)
	}
	return &AssertionError{
		Type:     assertion.Type,
		Expected: expected,
		Actual:   fmt.Sprintf("expressions %q", all),
		Trace:    trace,
	}
}

func assertLinkContains(s *session.Session, assertion Assertion, trace []TraceEvent) error {
	var sources []string
	for _, l := range s.Links() {
		if l.Source.String() == assertion.Source {
			return nil
		}
		sources = append(sources, l.Source.String())
	}
	return &AssertionError{
		Type:     AssertLinkContains,
		Expected: fmt.Sprintf("a link from %s", assertion.Source),
		Actual:   fmt.Sprintf("links from %v", sources),
		Trace:    trace,
	}
}

func assertLinkCount(s *session.Session, assertion Assertion, trace []TraceEvent) error {
	count := len(s.Links())
	if count == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertLinkCount,
		Expected: fmt.Sprintf("%d link(s)", assertion.Count),
		Actual:   fmt.Sprintf("%d link(s)", count),
		Trace:    trace,
	}
}

func assertParams(s *session.Session, assertion Assertion, trace []TraceEvent) error {
	names := s.ParameterNames()
	if slices.Equal(names, assertion.Names) || (len(names) == 0 && len(assertion.Names) == 0) {
		return nil
	}
	return &AssertionError{
		Type:     AssertParams,
		Expected: fmt.Sprintf("params %v", assertion.Names),
		Actual:   fmt.Sprintf("params %v", names),
		Trace:    trace,
	}
}

func assertSnapshotCount(ctx context.Context, st *store.Store, name string, assertion Assertion, trace []TraceEvent) error {
	history, err := st.MappingHistory(ctx, name)
	if err != nil {
		return fmt.Errorf("snapshot_count: reading history: %w", err)
	}
	if len(history) == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertSnapshotCount,
		Expected: fmt.Sprintf("%d snapshot(s)", assertion.Count),
		Actual:   fmt.Sprintf("%d snapshot(s)", len(history)),
		Trace:    trace,
	}
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	if actx == nil || actx.Session == nil {
		return []string{"assertions require a session"}
	}

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertExpressionPresent, AssertExpressionAbsent:
			err = assertExpression(actx.Session.Tree(), assertion, result.Trace)
		case AssertLinkContains:
			err = assertLinkContains(actx.Session, assertion, result.Trace)
		case AssertLinkCount:
			err = assertLinkCount(actx.Session, assertion, result.Trace)
		case AssertParams:
			err = assertParams(actx.Session, assertion, result.Trace)
		case AssertSnapshotCount:
			if actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: snapshot_count requires a store", i)
			} else {
				err = assertSnapshotCount(actx.Ctx, actx.Store, actx.Name, assertion, result.Trace)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
