package probe

import "time"

// Config holds configuration for a probe run.
type Config struct {
	BaseURL       string        // Base URL of the prefixd service
	ProxyPrefix   string        // Proxy prefix the service is configured with
	GatewayOrigin string        // Gateway origin the service is configured with
	SelfAPIOrigin string        // Self-API origin the service is configured with
	Paths         []string      // Paths probed under every target on top of DefaultPaths
	Workers       int           // Number of concurrent workers
	Timeout       time.Duration // HTTP request timeout
	OutputFile    string        // Optional JSON report of every outcome
	Verbose       bool          // Log every case
}

// Case is one path/target pair and the URL the service should answer with.
type Case struct {
	Path   string `json:"path"`
	Target string `json:"target"`
	Want   string `json:"want"`
}

// Outcome is the service's answer to a Case.
type Outcome struct {
	Case
	Got   string `json:"got"`
	Error string `json:"error,omitempty"`
}

// Mismatch reports whether the service answered differently than expected.
func (o Outcome) Mismatch() bool {
	return o.Error == "" && o.Got != o.Want
}

// Stats holds probe statistics.
type Stats struct {
	CasesGenerated int
	CasesSubmitted int
	Matched        int
	Mismatched     int
	Failed         int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
