package probe

import "time"

// Config holds configuration for one probe run.
type Config struct {
	BaseURL    string        // Base URL of a running vanguard instance
	UserID     string        // Linked user to probe
	Code       string        // Optional authorization code; links a fresh account first
	Workers    int           // Characters probed concurrently
	Timeout    time.Duration // HTTP request timeout
	Mode       int           // Activity mode filter
	Count      int           // Activities per character; 0 uses the server default
	CutoffYear int           // Oldest activity year the server should return
	OutputFile string        // Optional JSON report file
}

// Violation is one broken response invariant.
type Violation struct {
	Check   string `json:"check"`
	Subject string `json:"subject"`
	Detail  string `json:"detail"`
}

// Report holds the outcome of a probe run.
type Report struct {
	UserID            string        `json:"userId"`
	Characters        int           `json:"characters"`
	ItemsChecked      int           `json:"itemsChecked"`
	ActivitiesChecked int           `json:"activitiesChecked"`
	WeaponStatRows    int           `json:"weaponStatRows"`
	Failures          []string      `json:"failures"`
	Violations        []Violation   `json:"violations"`
	StartTime         time.Time     `json:"startTime"`
	EndTime           time.Time     `json:"endTime"`
	Duration          time.Duration `json:"duration"`
}

// OK reports whether every request succeeded and every check passed.
func (r *Report) OK() bool {
	return len(r.Failures) == 0 && len(r.Violations) == 0
}
