package enumerate

import (
	"sort"

	"github.com/goliatone/go-formcover/pkg/questionnaire"
)

// Gatekeeper is a test variable that controls the visibility of several
// questions.
type Gatekeeper struct {
	Question int    `json:"question"`
	Label    string `json:"label"`
	// Controlled lists the questions whose condition references it.
	Controlled []int `json:"controlled"`
	// Dependencies lists the test variables referenced by the gatekeeper's
	// own condition.
	Dependencies []int `json:"dependencies,omitempty"`
}

// controlledSets maps each eligible variable to the questions whose
// visibility references it, ascending.
func controlledSets(form *questionnaire.Form, eligible map[int]bool) map[int][]int {
	out := make(map[int][]int)
	for _, q := range form.Questions {
		if q.Visibility == nil {
			continue
		}
		for _, label := range q.Visibility.Labels() {
			n := form.NumberOf(label)
			if n == 0 || n == q.Number || !eligible[n] {
				continue
			}
			out[n] = append(out[n], q.Number)
		}
	}
	for n := range out {
		sort.Ints(out[n])
	}
	return out
}

// rankGatekeepers keeps at most limit variables whose controlled set has at
// least minControlled members, largest first with ties by question number.
// The result is returned in ascending question order.
func rankGatekeepers(form *questionnaire.Form, eligible map[int]bool, limit, minControlled int) []Gatekeeper {
	sets := controlledSets(form, eligible)

	ranked := make([]int, 0, len(sets))
	for n, controlled := range sets {
		if len(controlled) >= minControlled {
			ranked = append(ranked, n)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if len(sets[a]) != len(sets[b]) {
			return len(sets[a]) > len(sets[b])
		}
		return a < b
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	sort.Ints(ranked)

	out := make([]Gatekeeper, 0, len(ranked))
	for _, n := range ranked {
		q, _ := form.Question(n)
		out = append(out, Gatekeeper{
			Question:     n,
			Label:        q.Label,
			Controlled:   sets[n],
			Dependencies: directDependencies(form, q, eligible),
		})
	}
	return out
}

// directDependencies returns the eligible variables referenced by q's own
// condition, one level deep, in first-seen order.
func directDependencies(form *questionnaire.Form, q questionnaire.Question, eligible map[int]bool) []int {
	if q.Visibility == nil {
		return nil
	}
	var out []int
	for _, label := range q.Visibility.Labels() {
		n := form.NumberOf(label)
		if n == 0 || n == q.Number || !eligible[n] {
			continue
		}
		out = append(out, n)
	}
	return out
}
