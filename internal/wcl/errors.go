package wcl

import (
	"errors"
	"fmt"
	"strings"

	"raidstats/internal/aggregate"
)

// ErrMalformedResponse is returned when a page decodes but lacks the
// expected structure.
var ErrMalformedResponse = errors.New("malformed analytics response")

// ConnectionError reports a transport failure or non-2xx reply on a page.
// It matches aggregate.ErrConnection under errors.Is.
type ConnectionError struct {
	Page   int
	Status int // 0 when no response was received
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch page %d: http %d: %v", e.Page, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch page %d: %v", e.Page, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Is(target error) bool {
	return target == aggregate.ErrConnection
}

// QueryError carries the messages of a GraphQL "errors" array.
type QueryError struct {
	Page     int
	Messages []string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query page %d: %s", e.Page, strings.Join(e.Messages, "; "))
}
