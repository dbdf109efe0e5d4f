// Package target enumerates the routing intents a request path can carry.
package target

// Target selects which URL-rewriting rule applies to a request path.
type Target int

// Known targets. The zero value is Default.
const (
	Default Target = iota
	Proxy
	SelfAPI
	External
)

// Canonical names as they appear on the wire.
const (
	NameDefault  = "default"
	NameProxy    = "proxy"
	NameSelfAPI  = "self-api"
	NameExternal = "external"
)

var names = [...]string{
	Default:  NameDefault,
	Proxy:    NameProxy,
	SelfAPI:  NameSelfAPI,
	External: NameExternal,
}

// All lists every known target in declaration order.
func All() []Target {
	return []Target{Default, Proxy, SelfAPI, External}
}

// Parse maps a target name to a Target. Names match exactly, case and
// surrounding whitespace included. It never fails: empty and unrecognized
// names yield Default.
func Parse(name string) Target {
	switch name {
	case NameProxy:
		return Proxy
	case NameSelfAPI:
		return SelfAPI
	case NameExternal:
		return External
	default:
		return Default
	}
}

// String returns the canonical name. Out-of-range values report "default"
// since they resolve like it.
func (t Target) String() string {
	if t < 0 || int(t) >= len(names) {
		return NameDefault
	}
	return names[t]
}

// Valid reports whether t is one of the declared targets.
func (t Target) Valid() bool {
	return t >= Default && t <= External
}

// MarshalText implements encoding.TextMarshaler.
func (t Target) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown names decode
// to Default rather than failing.
func (t *Target) UnmarshalText(b []byte) error {
	*t = Parse(string(b))
	return nil
}
