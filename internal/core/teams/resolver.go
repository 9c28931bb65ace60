package teams

import "strings"

// Resolver turns free-text team names from any source (match log, rating
// snapshots, odds feed) into canonical identifiers. All fuzzy matching in the
// repository goes through Resolver so the rules live in one place.
type Resolver struct {
	aliases map[string]string
	version int
}

func NewResolver(table AliasTable) *Resolver {
	aliases := table.Aliases
	if aliases == nil {
		aliases = map[string]string{}
	}
	return &Resolver{aliases: aliases, version: table.Version}
}

// Version is the alias table version the resolver was built from.
func (r *Resolver) Version() int { return r.version }

// Canonical returns the canonical identifier for name.
func (r *Resolver) Canonical(name string) string {
	return Normalize(name, r.aliases)
}

// Same reports whether two raw names refer to the same club. Exact canonical
// equality wins; otherwise one canonical form must contain the other
// ("real madrid" vs "real madrid cf").
func (r *Resolver) Same(a, b string) bool {
	return fuzzyContains(r.Canonical(a), r.Canonical(b))
}

// Pick returns the index of the candidate that best matches target, or -1.
// Candidates are scanned in order: the first exact canonical match wins,
// then the first containment match. The scan order makes the result
// deterministic for a given candidate slice.
func (r *Resolver) Pick(target string, candidates []string) int {
	want := r.Canonical(target)
	if want == "" {
		return -1
	}
	fuzzy := -1
	for i, c := range candidates {
		got := r.Canonical(c)
		if got == want {
			return i
		}
		if fuzzy < 0 && fuzzyContains(got, want) {
			fuzzy = i
		}
	}
	return fuzzy
}

func fuzzyContains(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}
