// Package report renders a plan.Plan for people and tools: a text test plan
// for testers (pongo2 template), CSV form-structure indexes and a JSON dump.
// Renderers are looked up by name through a Registry.
package report
