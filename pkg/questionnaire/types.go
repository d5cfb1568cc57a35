package questionnaire

import "strings"

// Operator names a node kind inside a visibility expression.
type Operator string

const (
	OperatorAnd         Operator = "AND"
	OperatorOr          Operator = "OR"
	OperatorEquals      Operator = "EQUALS"
	OperatorNotEquals   Operator = "NOT_EQUALS"
	OperatorContains    Operator = "CONTAINS"
	OperatorNotContains Operator = "NOT_CONTAINS"
	OperatorIncludes    Operator = "INCLUDES"
)

// Logical reports whether the operator joins two sub-expressions.
func (op Operator) Logical() bool {
	return op == OperatorAnd || op == OperatorOr
}

// Comparison reports whether the operator compares a parent answer with an
// expected value.
func (op Operator) Comparison() bool {
	switch op {
	case OperatorEquals, OperatorNotEquals, OperatorContains, OperatorNotContains, OperatorIncludes:
		return true
	default:
		return false
	}
}

// Positive reports whether the comparison holds when the parent answer
// matches the expected value.
func (op Operator) Positive() bool {
	switch op {
	case OperatorEquals, OperatorContains, OperatorIncludes:
		return true
	default:
		return false
	}
}

// Expression is a visibility condition tree. Logical nodes (AND/OR) use Left
// and Right; comparison nodes use Label and Value. A nil Value means the
// comparison carries no expected value ("any value").
//
// An Expression with an empty or unknown Operator represents a condition
// that exists in the document but could not be read; it references nothing
// and never translates.
type Expression struct {
	Operator Operator    `json:"operator" yaml:"operator"`
	Left     *Expression `json:"left,omitempty" yaml:"left,omitempty"`
	Right    *Expression `json:"right,omitempty" yaml:"right,omitempty"`
	Label    string      `json:"label,omitempty" yaml:"label,omitempty"`
	Value    *string     `json:"value,omitempty" yaml:"value,omitempty"`
}

// And joins two expressions with AND.
func And(left, right *Expression) *Expression {
	return &Expression{Operator: OperatorAnd, Left: left, Right: right}
}

// Or joins two expressions with OR.
func Or(left, right *Expression) *Expression {
	return &Expression{Operator: OperatorOr, Left: left, Right: right}
}

// Compare builds a comparison leaf against an expected value.
func Compare(op Operator, label, value string) *Expression {
	v := value
	return &Expression{Operator: op, Label: label, Value: &v}
}

// Answered builds the `label NOT_EQUALS <absent>` leaf, i.e. "has been
// answered".
func Answered(label string) *Expression {
	return &Expression{Operator: OperatorNotEquals, Label: label}
}

// Option is a selectable answer. Value is the data value referenced by
// visibility conditions; Display is what a person sees.
type Option struct {
	Value   string `json:"value" yaml:"value"`
	Display string `json:"display,omitempty" yaml:"display,omitempty"`
}

// Question is one form item.
type Question struct {
	Number     int         `json:"number" yaml:"number"`
	Label      string      `json:"label" yaml:"label"`
	Type       string      `json:"type" yaml:"type"`
	Hidden     bool        `json:"hidden" yaml:"hidden"`
	Required   bool        `json:"required" yaml:"required"`
	Options    []Option    `json:"options,omitempty" yaml:"options,omitempty"`
	Visibility *Expression `json:"visibilityCondition,omitempty" yaml:"visibilityCondition,omitempty"`
	// DefaultAnswer is only meaningful for hidden questions.
	DefaultAnswer *string `json:"defaultAnswer,omitempty" yaml:"defaultAnswer,omitempty"`
}

// Conditional reports whether the question carries a visibility condition.
func (q Question) Conditional() bool {
	return q.Visibility != nil
}

// OptionValues returns the option data values in document order.
func (q Question) OptionValues() []string {
	out := make([]string, 0, len(q.Options))
	for _, opt := range q.Options {
		out = append(out, opt.Value)
	}
	return out
}

const templateMarker = "${"

// TemplatedDefault reports whether the default answer is an unresolved
// substitution placeholder such as `${service.name}`.
func (q Question) TemplatedDefault() bool {
	return q.DefaultAnswer != nil && strings.Contains(*q.DefaultAnswer, templateMarker)
}

// Form is the normalised questionnaire.
type Form struct {
	Name      string     `json:"name" yaml:"name"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// Question returns the question with the given number.
func (f *Form) Question(number int) (Question, bool) {
	if f == nil || number < 1 || number > len(f.Questions) {
		return Question{}, false
	}
	q := f.Questions[number-1]
	if q.Number == number {
		return q, true
	}
	for _, candidate := range f.Questions {
		if candidate.Number == number {
			return candidate, true
		}
	}
	return Question{}, false
}

// Lookup resolves a label to the first question carrying it.
func (f *Form) Lookup(label string) (Question, bool) {
	if f == nil {
		return Question{}, false
	}
	for _, q := range f.Questions {
		if q.Label == label {
			return q, true
		}
	}
	return Question{}, false
}

// NumberOf resolves a label to its question number, or 0.
func (f *Form) NumberOf(label string) int {
	q, ok := f.Lookup(label)
	if !ok {
		return 0
	}
	return q.Number
}

// Visible returns the numbers of all non-hidden questions in ascending order.
func (f *Form) Visible() []int {
	if f == nil {
		return nil
	}
	out := make([]int, 0, len(f.Questions))
	for _, q := range f.Questions {
		if !q.Hidden {
			out = append(out, q.Number)
		}
	}
	return out
}
