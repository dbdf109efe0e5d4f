package probe

import (
	"slices"

	"github.com/okian/prefixd/internal/domain/resolver"
	"github.com/okian/prefixd/internal/domain/target"
)

// unknownTarget exercises the fallback for unrecognized names.
const unknownTarget = "not-a-target"

// referenceCases are the login nonce scenarios every deployment must honor.
var referenceCases = []struct{ path, target string }{
	{"/api/v1/login_nonce", ""},
	{"/api/v1/login_nonce", target.NameProxy},
	{"/api/v1/login_nonce", target.NameSelfAPI},
	{"api/v1/login_nonce", target.NameExternal},
}

// DefaultPaths are always probed; extra paths are added to them.
var DefaultPaths = []string{
	"",
	"/",
	"/api/v1/login_nonce",
	"api/v1/login_nonce",
	"//api/v1/double",
	"/api/v1/search?q=token&limit=10",
	"/api/v1/%E2%9C%93",
}

// BuildCases expands the reference scenarios plus every default and extra
// path under every target name, including the empty and an unknown one.
// Extra paths already in DefaultPaths are not repeated. Expected URLs come
// from ref.
func BuildCases(ref *resolver.Resolver, extra []string) []Case {
	paths := slices.Clone(DefaultPaths)
	for _, p := range extra {
		if !slices.Contains(paths, p) {
			paths = append(paths, p)
		}
	}

	names := []string{"", unknownTarget}
	for _, t := range target.All() {
		names = append(names, t.String())
	}

	cases := make([]Case, 0, len(referenceCases)+len(paths)*len(names))
	for _, rc := range referenceCases {
		cases = append(cases, Case{Path: rc.path, Target: rc.target, Want: ref.ResolveName(rc.path, rc.target)})
	}
	for _, p := range paths {
		for _, n := range names {
			cases = append(cases, Case{Path: p, Target: n, Want: ref.ResolveName(p, n)})
		}
	}
	return cases
}
