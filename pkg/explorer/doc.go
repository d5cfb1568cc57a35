// Package explorer walks a form interactively. It asks for each test
// variable in question order, offers only the answers that keep the form
// satisfiable, and reports which questions the chosen path shows.
package explorer
