// Package validator checks a partial answer assignment against a constraint
// model and, when it is consistent, derives the visible questions and the
// complete assignment it implies. Validate is stateless: every call opens its
// own solving context.
package validator
