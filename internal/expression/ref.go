package expression

import (
	"strings"
	"unicode"
)

// StepKind discriminates a location step.
type StepKind int

const (
	StepName StepKind = iota
	StepSelf
	StepParent
	// StepUnsupported marks wildcards, axes and descendant steps. A
	// reference containing one never resolves.
	StepUnsupported
)

// Step is one location step of a reference.
type Step struct {
	Kind      StepKind
	Prefix    string
	Name      string
	Attribute bool
}

// Ref is a location path found inside an expression.
type Ref struct {
	// Param names the parameter the path starts from, empty otherwise.
	Param    string
	Absolute bool
	Steps    []Step
}

// IsRelative reports whether the reference is evaluated against a context.
func (r Ref) IsRelative() bool {
	return r.Param == "" && !r.Absolute
}

func (r Ref) String() string {
	var b strings.Builder
	if r.Param != "" {
		b.WriteString("$" + r.Param)
	}
	for i, s := range r.Steps {
		if i > 0 || r.Param != "" || r.Absolute {
			b.WriteByte('/')
		}
		switch s.Kind {
		case StepSelf:
			b.WriteString(".")
		case StepParent:
			b.WriteString("..")
		case StepUnsupported:
			b.WriteString("*")
		default:
			if s.Attribute {
				b.WriteByte('@')
			}
			if s.Prefix != "" {
				b.WriteString(s.Prefix + ":")
			}
			b.WriteString(s.Name)
		}
	}
	if r.Absolute && len(r.Steps) == 0 {
		b.WriteByte('/')
	}
	return b.String()
}

var operatorNames = map[string]bool{
	"and": true,
	"or":  true,
	"div": true,
	"mod": true,
}

// References scans expr and returns the location paths it contains, in
// order of appearance.
func References(expr string) []Ref {
	s := &scanner{src: []rune(expr)}
	var refs []Ref
	for !s.done() {
		c := s.peek()
		switch {
		case unicode.IsSpace(c):
			s.pos++
		case c == '\'' || c == '"':
			s.skipLiteral(c)
		case c == '[':
			s.skipPredicate()
		case unicode.IsDigit(c):
			s.skipNumber()
		case c == '$':
			s.pos++
			name := s.readName()
			if name == "" {
				continue
			}
			ref := Ref{Param: name}
			if s.peek() == '/' {
				s.pos++
				ref.Steps = s.readSteps()
			}
			refs = append(refs, ref)
		case c == '/':
			s.pos++
			ref := Ref{Absolute: true}
			if s.peek() == '/' {
				s.pos++
				ref.Steps = append([]Step{{Kind: StepUnsupported}}, s.readSteps()...)
			} else if s.startsStep() {
				ref.Steps = s.readSteps()
			}
			refs = append(refs, ref)
		case s.startsStep():
			start := s.pos
			steps := s.readSteps()
			if len(steps) == 1 && steps[0].Kind == StepUnsupported {
				// multiplication or a bare wildcard
				continue
			}
			if len(steps) == 1 && steps[0].Kind == StepName && !steps[0].Attribute {
				if s.nextNonSpace() == '(' {
					// function call
					continue
				}
				if operatorNames[string(s.src[start:s.pos])] {
					continue
				}
			}
			refs = append(refs, Ref{Steps: steps})
		default:
			s.pos++
		}
	}
	return refs
}

type scanner struct {
	src []rune
	pos int
}

func (s *scanner) done() bool { return s.pos >= len(s.src) }

func (s *scanner) peek() rune {
	if s.done() {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) peekAt(offset int) rune {
	if s.pos+offset >= len(s.src) {
		return 0
	}
	return s.src[s.pos+offset]
}

func (s *scanner) nextNonSpace() rune {
	for i := s.pos; i < len(s.src); i++ {
		if !unicode.IsSpace(s.src[i]) {
			return s.src[i]
		}
	}
	return 0
}

func (s *scanner) startsStep() bool {
	c := s.peek()
	return c == '@' || c == '.' || c == '*' || isNameStart(c)
}

func (s *scanner) skipLiteral(quote rune) {
	s.pos++
	for !s.done() && s.peek() != quote {
		s.pos++
	}
	s.pos++
}

func (s *scanner) skipPredicate() {
	depth := 0
	for !s.done() {
		switch c := s.peek(); c {
		case '\'', '"':
			s.skipLiteral(c)
			continue
		case '[':
			depth++
		case ']':
			depth--
		}
		s.pos++
		if depth == 0 {
			return
		}
	}
}

func (s *scanner) skipNumber() {
	for !s.done() && (unicode.IsDigit(s.peek()) || s.peek() == '.') {
		s.pos++
	}
}

// readName reads an NCName.
func (s *scanner) readName() string {
	start := s.pos
	if !isNameStart(s.peek()) {
		return ""
	}
	for !s.done() && isNameChar(s.peek()) {
		s.pos++
	}
	return string(s.src[start:s.pos])
}

// readSteps reads steps separated by "/" starting at the current position.
func (s *scanner) readSteps() []Step {
	var steps []Step
	for {
		steps = append(steps, s.readStep())
		for s.peek() == '[' {
			s.skipPredicate()
		}
		if s.peek() != '/' {
			return steps
		}
		s.pos++
		if s.peek() == '/' {
			s.pos++
			steps = append(steps, Step{Kind: StepUnsupported})
		}
		if !s.startsStep() {
			return steps
		}
	}
}

func (s *scanner) readStep() Step {
	switch {
	case s.peek() == '.' && s.peekAt(1) == '.':
		s.pos += 2
		return Step{Kind: StepParent}
	case s.peek() == '.':
		s.pos++
		return Step{Kind: StepSelf}
	case s.peek() == '*':
		s.pos++
		return Step{Kind: StepUnsupported}
	}

	step := Step{Kind: StepName}
	if s.peek() == '@' {
		step.Attribute = true
		s.pos++
	}
	name := s.readName()
	if s.peek() == ':' && s.peekAt(1) == ':' {
		// axis specifier such as child::
		s.pos += 2
		s.readName()
		return Step{Kind: StepUnsupported}
	}
	if s.peek() == ':' && isNameStart(s.peekAt(1)) {
		s.pos++
		step.Prefix = name
		name = s.readName()
	} else if s.peek() == ':' && s.peekAt(1) == '*' {
		s.pos += 2
		return Step{Kind: StepUnsupported}
	}
	if name == "" {
		return Step{Kind: StepUnsupported}
	}
	step.Name = name
	return step
}

func isNameStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

func isNameChar(c rune) bool {
	return isNameStart(c) || unicode.IsDigit(c) || c == '-' || c == '.'
}
