package markers

import (
	"strings"

	"github.com/banshee-data/markerpose/internal/mocap"
)

// Binding is how one role is found in the data stream: a concrete marker
// name, the midpoint of two names, or nothing.
type Binding struct {
	Name string
	Pair [2]string
	// Midpoint is set when Pair is in use.
	Midpoint bool
}

// Resolved reports whether the role has a source.
func (b Binding) Resolved() bool {
	return b.Name != "" || b.Midpoint
}

func (b Binding) String() string {
	switch {
	case b.Midpoint:
		return "mid(" + b.Pair[0] + "," + b.Pair[1] + ")"
	case b.Name != "":
		return b.Name
	default:
		return "<unresolved>"
	}
}

// Bindings is the per-session role map. It is immutable once built.
type Bindings struct {
	Prefix string
	Roles  [RoleCount]Binding
}

// Get returns the binding of one role.
func (b *Bindings) Get(r Role) Binding {
	return b.Roles[r]
}

// Unresolved lists the roles without a source, in role order.
func (b *Bindings) Unresolved() []Role {
	var out []Role
	for r, bind := range b.Roles {
		if !bind.Resolved() {
			out = append(out, Role(r))
		}
	}
	return out
}

// Resolve binds every role against one frame's marker names. For each role
// the first alias present wins; otherwise the first midpoint pair with both
// names present; otherwise the role stays unresolved and is logged once.
func Resolve(labels []string, prefix string) *Bindings {
	present := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		present[l] = struct{}{}
	}
	has := func(name string) bool {
		_, ok := present[prefix+name]
		return ok
	}

	b := &Bindings{Prefix: prefix}
	for r := Role(0); r < RoleCount; r++ {
		b.Roles[r] = resolveRole(r, prefix, has)
	}

	unresolved := b.Unresolved()
	for _, r := range unresolved {
		mocap.Opsf("marker role %s unresolved for prefix %q; it stays NaN this session", r, prefix)
	}
	mocap.Diagf("bound %d/%d marker roles for prefix %q", int(RoleCount)-len(unresolved), RoleCount, prefix)
	for r, bind := range b.Roles {
		if bind.Resolved() {
			mocap.Tracef("  %-18s <- %s", Role(r), bind)
		}
	}
	return b
}

func resolveRole(r Role, prefix string, has func(string) bool) Binding {
	for _, alias := range aliases[r] {
		if has(alias) {
			return Binding{Name: prefix + alias}
		}
	}
	for _, pair := range midpointPairs[r] {
		if has(pair[0]) && has(pair[1]) {
			return Binding{Pair: [2]string{prefix + pair[0], prefix + pair[1]}, Midpoint: true}
		}
	}
	return Binding{}
}

// Prefixes guesses the subject prefixes present in a label set. Each label
// is matched against the longest alias it ends with; labels without a known
// suffix are ignored.
func Prefixes(labels []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range labels {
		best := ""
		for r := Role(0); r < RoleCount; r++ {
			for _, n := range aliases[r] {
				if len(n) > len(best) && strings.HasSuffix(l, n) {
					best = n
				}
			}
		}
		if best == "" {
			continue
		}
		p := strings.TrimSuffix(l, best)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
