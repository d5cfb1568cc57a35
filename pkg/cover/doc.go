// Package cover reduces a pool of candidates to a small test suite with the
// greedy set-cover heuristic: repeatedly take the candidate that shows the
// most still-uncovered questions.
package cover
