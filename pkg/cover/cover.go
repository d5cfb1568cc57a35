package cover

import (
	"github.com/goliatone/go-formcover/pkg/constraint"
	"github.com/goliatone/go-formcover/pkg/enumerate"
)

// TestCase is one selected candidate, numbered from 1 in selection order.
type TestCase struct {
	Sequence      int                   `json:"sequence"`
	Assignment constraint.Assignment `json:"assignment"`
	// Complete holds every static test variable. Variables the case hides
	// carry constraint.Unset, so replaying Complete pins them unanswered.
	Complete      constraint.Assignment `json:"complete"`
	Visible       []int                 `json:"visible"`
	QuestionCount int                   `json:"questionCount"`
	// Newly lists the target questions this case covered first.
	Newly []int `json:"newlyCovered"`
}

// Selection is the result of Select.
type Selection struct {
	Cases []TestCase `json:"cases"`
	// Uncovered lists target questions no candidate could show, ascending.
	Uncovered []int `json:"uncovered"`
	Target    []int `json:"target"`
	// Remaining records the uncovered count after each selected case.
	Remaining []int `json:"remaining"`
}

// Select picks candidates until target is covered or no remaining candidate
// adds anything. Ties go to the earliest candidate in the input. Candidates
// are never selected twice.
func Select(candidates []enumerate.Candidate, target []int) Selection {
	uncovered := make(map[int]struct{}, len(target))
	for _, n := range target {
		uncovered[n] = struct{}{}
	}
	used := make([]bool, len(candidates))

	sel := Selection{Target: append([]int(nil), target...)}
	for len(uncovered) > 0 {
		best, bestGain := -1, 0
		for i, c := range candidates {
			if used[i] {
				continue
			}
			if gain := gainOf(c.Visible, uncovered); gain > bestGain {
				best, bestGain = i, gain
			}
		}
		if best < 0 {
			break
		}
		used[best] = true

		c := candidates[best]
		var newly []int
		for _, n := range c.Visible {
			if _, ok := uncovered[n]; ok {
				newly = append(newly, n)
				delete(uncovered, n)
			}
		}
		sel.Cases = append(sel.Cases, TestCase{
			Sequence:      len(sel.Cases) + 1,
			Assignment:    c.Assignment.Clone(),
			Complete:      c.Complete.Clone(),
			Visible:       append([]int(nil), c.Visible...),
			QuestionCount: len(c.Visible),
			Newly:         newly,
		})
		sel.Remaining = append(sel.Remaining, len(uncovered))
	}

	for _, n := range target {
		if _, ok := uncovered[n]; ok {
			sel.Uncovered = append(sel.Uncovered, n)
		}
	}
	return sel
}

func gainOf(visible []int, uncovered map[int]struct{}) int {
	gain := 0
	for _, n := range visible {
		if _, ok := uncovered[n]; ok {
			gain++
		}
	}
	return gain
}

// Coverage returns the covered share of the target in percent. An empty
// target counts as fully covered.
func (s Selection) Coverage() float64 {
	if len(s.Target) == 0 {
		return 100
	}
	return 100 * float64(len(s.Target)-len(s.Uncovered)) / float64(len(s.Target))
}
