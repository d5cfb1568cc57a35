package questionnaire

import "sort"

// Class is the role a question plays in test generation.
type Class string

const (
	ClassTestVariable   Class = "TEST_VARIABLE"
	ClassDataCollection Class = "DATA_COLLECTION"
	ClassHidden         Class = "HIDDEN"
)

// Dependency records one question whose visibility references a parent.
type Dependency struct {
	ChildNumber int      `json:"childNumber"`
	ChildLabel  string   `json:"childLabel"`
	Operator    Operator `json:"operator"`
	Value       *string  `json:"value,omitempty"`
}

// ReverseDependencies maps each referenced parent label to the questions
// whose visibility expression mentions it, in question order. A question
// referencing itself is ignored.
func ReverseDependencies(form *Form) map[string][]Dependency {
	out := make(map[string][]Dependency)
	if form == nil {
		return out
	}
	for _, q := range form.Questions {
		if q.Visibility == nil {
			continue
		}
		for _, ref := range q.Visibility.References() {
			if ref.Label == q.Label {
				continue
			}
			out[ref.Label] = append(out[ref.Label], Dependency{
				ChildNumber: q.Number,
				ChildLabel:  q.Label,
				Operator:    ref.Operator,
				Value:       ref.Value,
			})
		}
	}
	return out
}

// Classification partitions question numbers. Each slice is ascending.
type Classification struct {
	TestVariables  []int `json:"testVariables"`
	DataCollection []int `json:"dataCollection"`
	Hidden         []int `json:"hidden"`

	classes map[int]Class
}

// Classify assigns every question exactly one Class: hidden questions are
// HIDDEN, visible questions referenced by another question's visibility are
// TEST_VARIABLE, the rest DATA_COLLECTION.
func Classify(form *Form) Classification {
	deps := ReverseDependencies(form)
	c := Classification{classes: make(map[int]Class)}
	if form == nil {
		return c
	}
	for _, q := range form.Questions {
		var class Class
		switch {
		case q.Hidden:
			class = ClassHidden
			c.Hidden = append(c.Hidden, q.Number)
		case len(deps[q.Label]) > 0:
			class = ClassTestVariable
			c.TestVariables = append(c.TestVariables, q.Number)
		default:
			class = ClassDataCollection
			c.DataCollection = append(c.DataCollection, q.Number)
		}
		c.classes[q.Number] = class
	}
	sort.Ints(c.TestVariables)
	sort.Ints(c.DataCollection)
	sort.Ints(c.Hidden)
	return c
}

// Class returns the class of a question number, or "" when unknown.
func (c Classification) Class(number int) Class {
	if c.classes == nil {
		c.rebuild()
	}
	return c.classes[number]
}

// IsTestVariable reports whether number is a test variable.
func (c Classification) IsTestVariable(number int) bool {
	return c.Class(number) == ClassTestVariable
}

func (c *Classification) rebuild() {
	c.classes = make(map[int]Class, len(c.TestVariables)+len(c.DataCollection)+len(c.Hidden))
	for _, n := range c.TestVariables {
		c.classes[n] = ClassTestVariable
	}
	for _, n := range c.DataCollection {
		c.classes[n] = ClassDataCollection
	}
	for _, n := range c.Hidden {
		c.classes[n] = ClassHidden
	}
}
