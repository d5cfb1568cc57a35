// Package orchestrator wires the source → questionnaire → constraint model →
// enumeration → cover → plan pipeline behind a single Generate call, with
// functional options for every collaborator.
package orchestrator
