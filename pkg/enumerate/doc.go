// Package enumerate discovers valid answer combinations that together show as
// many reachable questions as possible, without walking the full cross
// product of every test variable.
//
// Run works in three phases. Phase 1 validates the cross product of each
// gatekeeper (a test variable controlling several questions) with the test
// variables its own visibility depends on, or a bounded seeded sample of all
// variables when no gatekeeper exists. Phase 2 measures what those candidates
// leave uncovered. Phase 3 asks the solver directly for an assignment that
// shows each remaining question.
package enumerate
