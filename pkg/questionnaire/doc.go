// Package questionnaire defines the question model shared by the constraint
// builder, the enumeration engine and the report renderers. A Form is an
// ordered list of Questions numbered from 1 in document order; each question
// may carry a visibility Expression whose comparisons reference other
// questions by label. Decode turns a raw form document (JSON or YAML) into a
// Form, and Classify partitions its questions into test variables, data
// collection questions and hidden fields.
package questionnaire
