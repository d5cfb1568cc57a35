package validator

import (
	"fmt"

	"github.com/goliatone/go-formcover/pkg/constraint"
)

// ReasonKind classifies a failed validation.
type ReasonKind string

const (
	ReasonNone            ReasonKind = ""
	ReasonUnknownVariable ReasonKind = "unknown-variable"
	ReasonInvalidValue    ReasonKind = "invalid-value"
	ReasonContradiction   ReasonKind = "contradiction"
	ReasonIndeterminate   ReasonKind = "indeterminate"
)

// Outcome is the result of one validation. It is built fresh per call.
type Outcome struct {
	OK      bool
	Visible []int
	// Complete assigns every static test variable, constraint.Unset for
	// hidden ones. Validating it again yields the same visible set.
	Complete constraint.Assignment
	Reason   string
	Kind     ReasonKind
	Status   constraint.Status
}

// Validate checks assignment against model. Each key must be a test variable
// with a value encoding and each value one of its options (or
// constraint.Unset); these are checked before any solving happens.
func Validate(assignment constraint.Assignment, model *constraint.Model) Outcome {
	return validate(assignment, model, "validate")
}

// ValidateFor is Validate with a custom purpose label for solve observers.
func ValidateFor(purpose string, assignment constraint.Assignment, model *constraint.Model) Outcome {
	return validate(assignment, model, purpose)
}

func validate(assignment constraint.Assignment, model *constraint.Model, purpose string) Outcome {
	if model == nil {
		return Outcome{Kind: ReasonUnknownVariable, Reason: "no constraint model"}
	}

	keys := assignment.Keys()
	for _, n := range keys {
		enc, ok := model.Encoding(n)
		if !ok {
			return Outcome{
				Kind:   ReasonUnknownVariable,
				Reason: fmt.Sprintf("question %d is not a test variable", n),
			}
		}
		if _, ok := enc.Encode(assignment[n]); !ok {
			return Outcome{
				Kind:   ReasonInvalidValue,
				Reason: fmt.Sprintf("invalid value %q for question %d", assignment[n], n),
			}
		}
	}

	ctx := model.NewContext(purpose)
	for _, n := range keys {
		if err := ctx.AssumeValue(n, assignment[n]); err != nil {
			return Outcome{Kind: ReasonInvalidValue, Reason: err.Error()}
		}
	}

	switch status := ctx.Check(); status {
	case constraint.Sat:
		sol, err := ctx.Solution()
		if err != nil {
			return Outcome{Kind: ReasonIndeterminate, Reason: err.Error(), Status: status}
		}
		return Outcome{OK: true, Visible: sol.Visible, Complete: sol.Complete, Status: status}
	case constraint.Unsat:
		return Outcome{Kind: ReasonContradiction, Reason: "contradictory constraints", Status: status}
	default:
		return Outcome{Kind: ReasonIndeterminate, Reason: "solver returned an indeterminate result", Status: status}
	}
}
