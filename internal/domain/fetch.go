package domain

import "time"

// FetchSource names the caller that triggered an upstream fetch.
type FetchSource string

const (
	FetchSourcePage   FetchSource = "page"
	FetchSourceAPI    FetchSource = "api"
	FetchSourceExport FetchSource = "export"
)

// FetchRecord is one audited call to the random user service.
// It never carries the returned users.
type FetchRecord struct {
	ID             int64
	Source         FetchSource
	Limit          int
	Count          int
	Seed           string
	Version        string
	DurationMillis int64
	ErrorMessage   string
	CreatedAt      time.Time
}

// Failed reports whether the fetch ended in an error.
func (r FetchRecord) Failed() bool {
	return r.ErrorMessage != ""
}
