package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Yasin4161/Internet-download-agent/format"
)

type Kind int

const (
	KindInternal Kind = iota
	KindMissingReference
	KindInvalidReference
	KindUnsupportedReference
	KindNoMetadata
	KindProviderUnavailable
	KindNoMatchingFormat
	KindStream
)

var kindCodes = map[Kind]string{
	KindInternal:             "internal_error",
	KindMissingReference:     "missing_url",
	KindInvalidReference:     "invalid_url",
	KindUnsupportedReference: "unsupported_url",
	KindNoMetadata:           "no_metadata",
	KindProviderUnavailable:  "provider_unavailable",
	KindNoMatchingFormat:     "no_matching_format",
	KindStream:               "stream_error",
}

var kindMessages = map[Kind]string{
	KindInternal:             "something went wrong",
	KindMissingReference:     "please provide a video url",
	KindInvalidReference:     "please provide a valid YouTube url",
	KindUnsupportedReference: "no video can be retrieved from this url",
	KindNoMetadata:           "the video information could not be retrieved",
	KindProviderUnavailable:  "the video service could not be reached",
	KindNoMatchingFormat:     "the requested quality is not available",
	KindStream:               "the video could not be downloaded",
}

// Code is the machine facing error code.
func (k Kind) Code() string {
	return kindCodes[k]
}

func (k Kind) Message() string {
	return kindMessages[k]
}

func (k Kind) Status() int {
	switch k {
	case KindMissingReference, KindInvalidReference, KindUnsupportedReference:
		return http.StatusBadRequest
	case KindNoMatchingFormat:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is returned by the gateway operations for everything that goes wrong
// before the download body starts.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind.Code())
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind.Code(), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StreamError is a failure of the proxy. Once BodyStarted is set the
// response is committed and the connection can only be dropped.
type StreamError struct {
	BodyStarted bool
	Bytes       int64
	Err         error
}

func (e *StreamError) Error() string {
	if e.BodyStarted {
		return fmt.Sprintf("stream failed after %d bytes: %v", e.Bytes, e.Err)
	}
	return fmt.Sprintf("stream failed before body: %v", e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// KindOf classifies any error coming out of the gateway.
func KindOf(err error) Kind {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind
	}
	var serr *StreamError
	if errors.As(err, &serr) {
		return KindStream
	}
	if errors.Is(err, format.ErrNoMatchingFormat) {
		return KindNoMatchingFormat
	}
	return KindInternal
}
