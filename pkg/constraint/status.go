package constraint

// Status is the outcome of one satisfiability check.
type Status int

const (
	Indeterminate Status = iota
	Sat
	Unsat
)

func (s Status) String() string {
	switch s {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "indeterminate"
	}
}

func statusFromGini(result int) Status {
	switch result {
	case 1:
		return Sat
	case -1:
		return Unsat
	default:
		return Indeterminate
	}
}
