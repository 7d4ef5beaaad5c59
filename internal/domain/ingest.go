package domain

// Failure tags reported in BatchResult.Failures. They are deliberately
// coarse: downstream consumers match on the tag, not on per-row detail.
const (
	FailureMissingBucketOrKey = "missing_bucket_or_key"
	FailureParseErrors        = "parse_errors"
	// FailureObjectFailed is only emitted when object failure isolation is on.
	FailureObjectFailed = "object_failed"
)

// RawRecord is one decoded CSV line keyed by header name.
type RawRecord map[string]string

// Value returns the column value and whether the column was present at all,
// so callers can tell a missing column from an empty one.
func (r RawRecord) Value(column string) (string, bool) {
	v, ok := r[column]
	return v, ok
}

// IngestOutcome summarizes one object's ingestion.
type IngestOutcome struct {
	Inserted      int64 `json:"inserted"`
	ParseFailures int   `json:"parse_failures"`
}

// BatchResult is the outcome of one trigger event across all its objects.
type BatchResult struct {
	Inserted int64    `json:"inserted"`
	Failures []string `json:"failures"`
}

// NewBatchResult returns an empty result whose Failures encodes as [] rather
// than null.
func NewBatchResult() BatchResult {
	return BatchResult{Failures: []string{}}
}

// PresignedPost is a browser form upload grant: post Fields plus the file to
// URL before the grant expires.
type PresignedPost struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}
