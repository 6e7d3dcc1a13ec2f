package domain

import "fmt"

// StatusCode classifies the outcome of fetching one source in one run.
type StatusCode string

const (
	StatusOK             StatusCode = "OK"
	StatusNoMatch        StatusCode = "Active/no-match"
	StatusBlocked        StatusCode = "Blocked"
	StatusRateLimited    StatusCode = "RateLimited"
	StatusServerError    StatusCode = "ServerError"
	StatusClientError    StatusCode = "ClientError"
	StatusTimeout        StatusCode = "Timeout"
	StatusTransportError StatusCode = "TransportError"
)

// ErrorKind is the per-source failure taxonomy reported to callers.
type ErrorKind string

const (
	SourceUnreachable ErrorKind = "SourceUnreachable"
	SourceBlocked     ErrorKind = "SourceBlocked"
	SourceRateLimited ErrorKind = "SourceRateLimited"
	SourceServerError ErrorKind = "SourceServerError"
	SourceClientError ErrorKind = "SourceClientError"
	SourceEmptyResult ErrorKind = "SourceEmptyResult"
)

// SourceStatus is the terminal outcome of one source task.
type SourceStatus struct {
	Code       StatusCode
	HTTPStatus int
	Matches    int
	Detail     string
}

// Kind maps the status code to the error taxonomy; OK yields an empty kind.
func (s SourceStatus) Kind() ErrorKind {
	switch s.Code {
	case StatusNoMatch:
		return SourceEmptyResult
	case StatusBlocked:
		return SourceBlocked
	case StatusRateLimited:
		return SourceRateLimited
	case StatusServerError:
		return SourceServerError
	case StatusClientError:
		return SourceClientError
	case StatusTimeout, StatusTransportError:
		return SourceUnreachable
	default:
		return ""
	}
}

// Failed reports whether the source could not be scanned at all.
func (s SourceStatus) Failed() bool {
	return s.Code != StatusOK && s.Code != StatusNoMatch
}

// String renders the status for display next to the source row.
func (s SourceStatus) String() string {
	switch s.Code {
	case StatusOK:
		return fmt.Sprintf("OK (%d)", s.Matches)
	case StatusServerError, StatusClientError:
		return fmt.Sprintf("%s %d", s.Code, s.HTTPStatus)
	case StatusTransportError:
		if s.Detail != "" {
			return fmt.Sprintf("%s: %s", s.Code, s.Detail)
		}
	}
	return string(s.Code)
}
