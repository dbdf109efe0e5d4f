// Package types contains common types used across the application
package types

// Resolution is the outcome of resolving one path for one target.
type Resolution struct {
	Path   string `json:"path"`
	Target string `json:"target"`
	URL    string `json:"url"`
}

// ResolveRequest asks for one path to be resolved. Target is a name; unknown
// names resolve like default.
type ResolveRequest struct {
	Path   string `json:"path"`
	Target string `json:"target"`
}
