package imports

import (
	"fmt"
	"sort"
	"strings"

	perrors "github.com/siyuan-infoblox/pysort/pkg/errors"
)

// Policy selects an import ordering strategy.
type Policy int

const (
	FromFirst    Policy = iota // selective imports, then plain imports
	ImportFirst                // plain imports, then selective imports
	Alphabetical               // canonical text only
	Structural                 // standard library, third-party, local
)

var policyNames = map[Policy]string{
	FromFirst:    "from_first",
	ImportFirst:  "import_first",
	Alphabetical: "alphabetical",
	Structural:   "structural",
}

// Policies returns every policy in declaration order.
func Policies() []Policy {
	return []Policy{FromFirst, ImportFirst, Alphabetical, Structural}
}

// PolicyNames returns the lower-case names accepted by ParsePolicy.
func PolicyNames() []string {
	names := make([]string, 0, len(policyNames))
	for _, p := range Policies() {
		names = append(names, p.String())
	}
	return names
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy matches name case-insensitively against the policy names.
// Dashes are accepted in place of underscores.
func ParsePolicy(name string) (Policy, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for _, p := range Policies() {
		if p.String() == normalized {
			return p, nil
		}
	}
	return 0, perrors.Validation(fmt.Sprintf(perrors.ErrMsgUnknownPolicy, name, strings.Join(PolicyNames(), ", ")), "")
}

// MarshalText renders p by name and fails for a value outside the four policies.
func (p Policy) MarshalText() ([]byte, error) {
	if _, ok := policyNames[p]; !ok {
		return nil, fmt.Errorf("unknown policy %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText sets p from a name accepted by ParsePolicy.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// rank is the primary sort key of r under p.
func (p Policy) rank(r Record) int {
	switch p {
	case FromFirst:
		if r.IsSelective {
			return 0
		}
		return 1
	case ImportFirst:
		if r.IsSelective {
			return 1
		}
		return 0
	case Alphabetical:
		return 0
	case Structural:
		return int(r.Category)
	}
	panic(fmt.Sprintf("imports: unknown policy %d", int(p)))
}

// Order returns a new slice holding records sorted under policy. The input is
// not modified. Records with equal keys keep their relative order, and duplicates
// are kept.
func Order(records []Record, policy Policy) []Record {
	if _, ok := policyNames[policy]; !ok {
		panic(fmt.Sprintf("imports: unknown policy %d", int(policy)))
	}

	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := policy.rank(sorted[i]), policy.rank(sorted[j])
		if ri != rj {
			return ri < rj
		}
		return sorted[i].OriginalText < sorted[j].OriginalText
	})
	return sorted
}
