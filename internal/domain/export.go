package domain

import "time"

// Export is a batch of users stored as a JSON object in the export bucket.
type Export struct {
	Key          string
	Size         int64
	Count        int
	LastModified *time.Time
}
