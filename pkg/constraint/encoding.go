package constraint

// Unset is the assignment value for a test variable that has no answer. It
// always encodes to code 0.
const Unset = "<unset>"

// Encoding maps the option values of one test variable to positive integer
// codes in option order. Code 0 is reserved for Unset.
type Encoding struct {
	Question int
	values   []string
	codes    map[string]int
}

// NewEncoding builds the encoding for a question's option values. Duplicate
// values keep their first code.
func NewEncoding(question int, values []string) Encoding {
	e := Encoding{Question: question, codes: make(map[string]int, len(values))}
	for _, v := range values {
		if _, ok := e.codes[v]; ok {
			continue
		}
		e.values = append(e.values, v)
		e.codes[v] = len(e.values)
	}
	return e
}

// Encode returns the code of value.
func (e Encoding) Encode(value string) (int, bool) {
	if value == Unset {
		return 0, true
	}
	code, ok := e.codes[value]
	return code, ok
}

// Decode returns the value for code.
func (e Encoding) Decode(code int) (string, bool) {
	if code == 0 {
		return Unset, true
	}
	if code < 0 || code > len(e.values) {
		return "", false
	}
	return e.values[code-1], true
}

// Values returns the real option values in code order.
func (e Encoding) Values() []string {
	return append([]string(nil), e.values...)
}

// Len counts codes including the reserved 0.
func (e Encoding) Len() int {
	return len(e.values) + 1
}

// Dynamic reports whether the variable has no static options, so its value
// comes from outside the form and cannot be decided by a test.
func (e Encoding) Dynamic() bool {
	return e.Len() < 2
}
