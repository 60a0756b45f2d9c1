package mapping

import "fmt"

// Kind tags the variant of an Item.
type Kind int

const (
	KindField Kind = iota + 1
	KindValueSelector
	KindIf
	KindChoose
	KindWhen
	KindOtherwise
	KindForEach
)

var kindNames = map[Kind]string{
	KindField:         "fieldItem",
	KindValueSelector: "valueSelector",
	KindIf:            "if",
	KindChoose:        "choose",
	KindWhen:          "when",
	KindOtherwise:     "otherwise",
	KindForEach:       "forEach",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// HasExpression reports whether items of kind k carry an expression.
func (k Kind) HasExpression() bool {
	switch k {
	case KindValueSelector, KindIf, KindWhen, KindForEach:
		return true
	default:
		return false
	}
}

// ValueType governs how a value selector is encoded.
type ValueType int

const (
	// ValueTypeValue copies the string value of the selection.
	ValueTypeValue ValueType = iota
	// ValueTypeAttribute copies a value into an attribute under construction.
	ValueTypeAttribute
	// ValueTypeContainer copies the selected node including its subtree.
	ValueTypeContainer
)

func (v ValueType) String() string {
	switch v {
	case ValueTypeValue:
		return "VALUE"
	case ValueTypeAttribute:
		return "ATTRIBUTE"
	case ValueTypeContainer:
		return "CONTAINER"
	default:
		return fmt.Sprintf("ValueType(%d)", int(v))
	}
}
