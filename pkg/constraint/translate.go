package constraint

import (
	"log/slog"

	"github.com/go-air/gini/z"

	"github.com/goliatone/go-formcover/pkg/questionnaire"
)

// translator turns visibility expressions into circuit literals. The bool
// result is false when the expression cannot be translated.
type translator struct {
	model *Model
}

func (t translator) translate(owner questionnaire.Question, expr *questionnaire.Expression) (z.Lit, bool) {
	if expr == nil {
		return z.LitNull, false
	}
	m := t.model
	switch {
	case expr.Operator.Logical():
		left, lok := t.translate(owner, expr.Left)
		right, rok := t.translate(owner, expr.Right)
		switch {
		case lok && rok:
			if expr.Operator == questionnaire.OperatorAnd {
				return m.and(left, right), true
			}
			return m.or(left, right), true
		case lok:
			return left, true
		case rok:
			return right, true
		default:
			return z.LitNull, false
		}
	case expr.Operator.Comparison():
		return t.comparison(owner, expr)
	default:
		t.warn(owner, expr, "unsupported operator")
		return z.LitNull, false
	}
}

func (t translator) comparison(owner questionnaire.Question, expr *questionnaire.Expression) (z.Lit, bool) {
	m := t.model
	parent, ok := m.form.Lookup(expr.Label)
	if !ok {
		t.warn(owner, expr, "unknown parent label")
		return z.LitNull, false
	}

	if enc, ok := m.encodings[parent.Number]; ok {
		lits := m.values[parent.Number]
		if expr.Value == nil {
			if expr.Operator == questionnaire.OperatorNotEquals {
				return lits[0].Not(), true
			}
			t.warn(owner, expr, "comparison without expected value")
			return z.LitNull, false
		}
		code, ok := enc.Encode(*expr.Value)
		if !ok {
			t.warn(owner, expr, "expected value is not an option of the parent")
			return z.LitNull, false
		}
		if expr.Operator.Positive() {
			return lits[code], true
		}
		return lits[code].Not(), true
	}

	if parent.Hidden {
		switch {
		case parent.TemplatedDefault():
			// The placeholder is assumed to resolve to whatever the condition
			// expects.
			if expr.Operator.Positive() {
				return m.circuit.T, true
			}
			return m.circuit.F, true
		case parent.DefaultAnswer != nil:
			return m.constant(hiddenComparison(expr, *parent.DefaultAnswer, true)), true
		default:
			return m.constant(hiddenComparison(expr, "", false)), true
		}
	}

	m.logger.Warn("constraint: parent is outside the modelled variables, assuming condition holds",
		slog.Int("question", owner.Number),
		slog.String("label", owner.Label),
		slog.String("parent", expr.Label))
	return m.circuit.T, true
}

// hiddenComparison evaluates a comparison against a hidden field's fixed
// answer. answered is false when the field has no default at all.
func hiddenComparison(expr *questionnaire.Expression, answer string, answered bool) bool {
	if expr.Value == nil {
		return expr.Operator == questionnaire.OperatorNotEquals && answered
	}
	equal := answer == *expr.Value
	if expr.Operator.Positive() {
		return equal
	}
	return !equal
}

func (m *Model) constant(value bool) z.Lit {
	if value {
		return m.circuit.T
	}
	return m.circuit.F
}

func (t translator) warn(owner questionnaire.Question, expr *questionnaire.Expression, reason string) {
	attrs := []any{
		slog.Int("question", owner.Number),
		slog.String("label", owner.Label),
		slog.String("operator", string(expr.Operator)),
		slog.String("reason", reason),
	}
	if expr.Label != "" {
		attrs = append(attrs, slog.String("parent", expr.Label))
	}
	if expr.Value != nil {
		attrs = append(attrs, slog.String("value", *expr.Value))
	}
	t.model.logger.Warn("constraint: comparison untranslatable", attrs...)
}
