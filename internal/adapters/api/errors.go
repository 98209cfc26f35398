package api

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	// KindAuth marks rejected credential exchanges and identity fetches.
	KindAuth ErrorKind = "auth"
	// KindRequest marks any other non-success response.
	KindRequest ErrorKind = "request"
	// KindUpload marks per-file upload failures, non-fatal to a batch.
	KindUpload ErrorKind = "upload"
	// KindDecode marks a malformed response body from the server.
	KindDecode ErrorKind = "decode"
)

// Error is the uniform failure surfaced by the transport client. Op names
// the attempted operation; Status is the HTTP status when one was received.
type Error struct {
	Kind    ErrorKind
	Op      string
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Kind, e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Message)
}

func IsKind(err error, kind ErrorKind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}
