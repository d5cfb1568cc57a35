package questionnaire

import (
	"strconv"
	"strings"
)

// Reference is one comparison leaf found inside a visibility expression.
type Reference struct {
	Label    string
	Operator Operator
	Value    *string
}

// References walks the expression depth-first, left to right, and returns
// every comparison leaf that names a parent label.
func (e *Expression) References() []Reference {
	var refs []Reference
	e.walk(func(node *Expression) {
		if node.Operator.Comparison() && node.Label != "" {
			refs = append(refs, Reference{Label: node.Label, Operator: node.Operator, Value: node.Value})
		}
	})
	return refs
}

// Labels returns the distinct parent labels referenced by the expression in
// first-seen order.
func (e *Expression) Labels() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, ref := range e.References() {
		if _, ok := seen[ref.Label]; ok {
			continue
		}
		seen[ref.Label] = struct{}{}
		out = append(out, ref.Label)
	}
	return out
}

func (e *Expression) walk(visit func(*Expression)) {
	if e == nil {
		return
	}
	if e.Operator.Logical() {
		e.Left.walk(visit)
		e.Right.walk(visit)
		return
	}
	visit(e)
}

// OperatorSymbol renders an operator the way reports display it.
func OperatorSymbol(op Operator) string {
	switch op {
	case OperatorEquals:
		return "=="
	case OperatorNotEquals:
		return "!="
	case OperatorContains:
		return "contains"
	case OperatorNotContains:
		return "does not contain"
	case OperatorIncludes:
		return "includes"
	default:
		return string(op)
	}
}

// String renders the expression for diagnostics, e.g.
// `(ServiceType == "B" AND Region is answered)`.
func (e *Expression) String() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	e.format(&b, true)
	return b.String()
}

func (e *Expression) format(b *strings.Builder, root bool) {
	switch {
	case e == nil:
		b.WriteString("<missing>")
	case e.Operator.Logical():
		if !root {
			b.WriteByte('(')
		}
		e.Left.format(b, false)
		b.WriteByte(' ')
		b.WriteString(string(e.Operator))
		b.WriteByte(' ')
		e.Right.format(b, false)
		if !root {
			b.WriteByte(')')
		}
	case e.Operator.Comparison():
		label := e.Label
		if label == "" {
			label = "<unlabelled>"
		}
		if e.Value == nil {
			if e.Operator == OperatorNotEquals {
				b.WriteString(label + " is answered")
				return
			}
			b.WriteString(label + " " + OperatorSymbol(e.Operator) + " <any>")
			return
		}
		b.WriteString(label + " " + OperatorSymbol(e.Operator) + " " + strconv.Quote(*e.Value))
	default:
		if e.Operator == "" {
			b.WriteString("<unreadable condition>")
			return
		}
		b.WriteString("<unsupported " + string(e.Operator) + ">")
	}
}
