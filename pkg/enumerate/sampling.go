package enumerate

import (
	"math"
	"math/bits"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formcover/pkg/constraint"
)

// domain is one variable's real option values in code order.
type domain struct {
	question int
	values   []string
}

// productSize multiplies the domain sizes; ok is false on overflow.
func productSize(domains []domain) (uint64, bool) {
	total := uint64(1)
	for _, d := range domains {
		hi, lo := bits.Mul64(total, uint64(len(d.values)))
		if hi != 0 {
			return 0, false
		}
		total = lo
	}
	return total, true
}

// assignmentAt decodes a mixed-radix index, first domain most significant,
// so ascending indices follow cross product order.
func assignmentAt(domains []domain, index uint64) constraint.Assignment {
	out := make(constraint.Assignment, len(domains))
	for i := len(domains) - 1; i >= 0; i-- {
		radix := uint64(len(domains[i].values))
		out[domains[i].question] = domains[i].values[index%radix]
		index /= radix
	}
	return out
}

// crossProduct lists every combination in order.
func crossProduct(domains []domain) []constraint.Assignment {
	total, ok := productSize(domains)
	if !ok || total == 0 {
		return nil
	}
	out := make([]constraint.Assignment, 0, total)
	for i := uint64(0); i < total; i++ {
		out = append(out, assignmentAt(domains, i))
	}
	return out
}

// sampleProduct draws up to n distinct combinations uniformly. Within the
// representable range it uses Floyd's algorithm over the index space;
// beyond it, independent picks per variable are deduplicated.
func sampleProduct(domains []domain, n int, rng *rand.Rand) []constraint.Assignment {
	for _, d := range domains {
		if len(d.values) == 0 {
			return nil
		}
	}
	total, ok := productSize(domains)
	if ok && total <= uint64(n) {
		return crossProduct(domains)
	}

	if ok {
		chosen := make(map[uint64]struct{}, n)
		for j := total - uint64(n); j < total; j++ {
			t := rng.Uint64N(j + 1)
			if _, dup := chosen[t]; dup {
				chosen[j] = struct{}{}
				continue
			}
			chosen[t] = struct{}{}
		}
		indices := make([]uint64, 0, len(chosen))
		for idx := range chosen {
			indices = append(indices, idx)
		}
		sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
		out := make([]constraint.Assignment, 0, len(indices))
		for _, idx := range indices {
			out = append(out, assignmentAt(domains, idx))
		}
		return out
	}

	seen := make(map[string]struct{}, n)
	out := make([]constraint.Assignment, 0, n)
	for attempts := 0; len(out) < n && attempts < n*10; attempts++ {
		a := make(constraint.Assignment, len(domains))
		for _, d := range domains {
			a[d.question] = d.values[rng.IntN(len(d.values))]
		}
		key := assignmentKey(a)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^math.MaxUint32))
}

func assignmentKey(a constraint.Assignment) string {
	var b strings.Builder
	for _, k := range a.Keys() {
		b.WriteString(strconv.Itoa(k))
		b.WriteByte('=')
		b.WriteString(a[k])
		b.WriteByte(0)
	}
	return b.String()
}
