// Package plan holds the output handed to report renderers: the selected
// test cases together with the form, its classification, the value
// encodings and everything the run could not cover.
package plan
