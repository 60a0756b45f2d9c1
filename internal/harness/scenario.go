package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a mapping scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file
	// and the snapshot history in the store.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Documents lists the definitions the session starts with.
	Documents Documents `yaml:"documents"`

	// Mappings is the stylesheet imported before the first step.
	Mappings string `yaml:"mappings"`

	// Steps are applied in order after the import.
	Steps []Step `yaml:"steps,omitempty"`

	// Assertions validate the session after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// Documents holds definition paths. A missing body stays primitive.
type Documents struct {
	Source string   `yaml:"source,omitempty"`
	Target string   `yaml:"target,omitempty"`
	Params []string `yaml:"params,omitempty"`
}

// Step is one edit applied to the session.
type Step struct {
	// Op is one of the Op constants.
	Op string `yaml:"op"`

	// Definition is the replacement document (update_document).
	Definition string `yaml:"definition,omitempty"`

	// Name is the parameter name (add_parameter, delete_parameter).
	Name string `yaml:"name,omitempty"`

	// Mappings is the stylesheet to import (import).
	Mappings string `yaml:"mappings,omitempty"`

	// ExpectPolicy is the consistency policy update_document must pick.
	// Empty skips the check.
	ExpectPolicy string `yaml:"expect_policy,omitempty"`

	// ExpectError makes the step pass only when it fails.
	ExpectError bool `yaml:"expect_error,omitempty"`
}

// Assertion validates the final session.
type Assertion struct {
	// Type is one of the Assert constants.
	Type string `yaml:"type"`

	// Expression is matched exactly against item expressions.
	Expression string `yaml:"expression,omitempty"`

	// Source is a source node path (link_contains).
	Source string `yaml:"source,omitempty"`

	// Count is the expected number (link_count, snapshot_count).
	Count int `yaml:"count,omitempty"`

	// Names are the expected parameter names (params).
	Names []string `yaml:"names,omitempty"`
}

// Step operations.
const (
	OpUpdateDocument  = "update_document"
	OpAddParameter    = "add_parameter"
	OpDeleteParameter = "delete_parameter"
	OpImport          = "import"
)

// Assertion type constants.
const (
	AssertExpressionPresent = "expression_present"
	AssertExpressionAbsent  = "expression_absent"
	AssertLinkContains      = "link_contains"
	AssertLinkCount         = "link_count"
	AssertParams            = "params"
	AssertSnapshotCount     = "snapshot_count"
)

// LoadScenario reads and parses a scenario YAML file, resolving the paths
// it names relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	scenario.resolvePaths(filepath.Dir(path))

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func (s *Scenario) resolvePaths(base string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	s.Documents.Source = resolve(s.Documents.Source)
	s.Documents.Target = resolve(s.Documents.Target)
	for i, p := range s.Documents.Params {
		s.Documents.Params[i] = resolve(p)
	}
	s.Mappings = resolve(s.Mappings)
	for i := range s.Steps {
		s.Steps[i].Definition = resolve(s.Steps[i].Definition)
		s.Steps[i].Mappings = resolve(s.Steps[i].Mappings)
	}
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Mappings == "" {
		return fmt.Errorf("mappings is required")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	files := []string{s.Mappings, s.Documents.Source, s.Documents.Target}
	files = append(files, s.Documents.Params...)
	for _, p := range files {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", p)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, st *Step) error {
	switch st.Op {
	case OpUpdateDocument:
		if st.Definition == "" {
			return fmt.Errorf("steps[%d]: definition is required for update_document", index)
		}
	case OpAddParameter, OpDeleteParameter:
		if st.Name == "" {
			return fmt.Errorf("steps[%d]: name is required for %s", index, st.Op)
		}
	case OpImport:
		if st.Mappings == "" {
			return fmt.Errorf("steps[%d]: mappings is required for import", index)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}
	if st.ExpectPolicy != "" && st.Op != OpUpdateDocument {
		return fmt.Errorf("steps[%d]: expect_policy only applies to update_document", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertExpressionPresent, AssertExpressionAbsent:
		if a.Expression == "" {
			return fmt.Errorf("assertions[%d]: expression is required for %s", index, a.Type)
		}
	case AssertLinkContains:
		if a.Source == "" {
			return fmt.Errorf("assertions[%d]: source is required for link_contains", index)
		}
	case AssertLinkCount, AssertSnapshotCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertParams:
		// An empty list asserts that no parameter is declared.
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
