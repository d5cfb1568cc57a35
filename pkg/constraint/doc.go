// Package constraint turns a questionnaire into a propositional model that a
// SAT solver can reason about.
//
// Every test variable gets one literal per value code (code 0 means "unset"),
// every visible question gets a visibility literal, and the form's rules become
// constraint formulas over those literals inside a go-air/gini circuit. The
// Model is immutable once Build returns. Callers query it through a Context,
// which copies the base constraints into a fresh solver for each check and is
// thrown away afterwards.
package constraint
