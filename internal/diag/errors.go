package diag

import "fmt"

// MalformedInputError reports a feed that does not match the diagnostic schema.
// Index is the offending record, or -1 when the feed as a whole is unreadable.
type MalformedInputError struct {
	Format FeedFormat
	Index  int
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	msg := fmt.Sprintf("malformed %s diagnostic feed", e.Format)
	if e.Index >= 0 {
		msg += fmt.Sprintf(": record %d", e.Index)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}
