package model

// Outcome is the result of ingesting one upstream update.
type Outcome string

const (
	OutcomeStored    Outcome = "stored"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeDropped   Outcome = "dropped"
	OutcomeFailed    Outcome = "failed"
)

// Drop reasons.
const (
	DropUndecodable = "undecodable"
	DropNoMessage   = "no_message"
	DropService     = "service"
	DropPolicy      = "policy"
	DropCommand     = "command"
	DropInvalid     = "invalid"
)

// IngestResult describes what happened to a single update.
type IngestResult struct {
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
	Err     error   `json:"-"`
}

// BatchResult tallies outcomes for one batch of updates.
type BatchResult struct {
	Stored     int `json:"stored"`
	Duplicates int `json:"duplicates"`
	Dropped    int `json:"dropped"`
	Failures   int `json:"failures"`
}

// Add records a single result.
func (b *BatchResult) Add(r IngestResult) {
	switch r.Outcome {
	case OutcomeStored:
		b.Stored++
	case OutcomeDuplicate:
		b.Duplicates++
	case OutcomeDropped:
		b.Dropped++
	case OutcomeFailed:
		b.Failures++
	}
}

// Failed reports whether any update in the batch could not be persisted.
func (b BatchResult) Failed() bool {
	return b.Failures > 0
}

// Total returns the number of updates seen.
func (b BatchResult) Total() int {
	return b.Stored + b.Duplicates + b.Dropped + b.Failures
}
