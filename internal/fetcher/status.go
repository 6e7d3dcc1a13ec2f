package fetcher

import (
	"context"
	"errors"
	"net"
	"net/http"

	"NewsRadar/internal/domain"
)

// classifyResponse maps an HTTP status to a failure status. The second value is
// false when the response can be scanned.
func classifyResponse(code int) (domain.SourceStatus, bool) {
	status := domain.SourceStatus{HTTPStatus: code}
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		status.Code = domain.StatusBlocked
	case code == http.StatusTooManyRequests:
		status.Code = domain.StatusRateLimited
	case code >= 500:
		status.Code = domain.StatusServerError
	case code >= 400:
		status.Code = domain.StatusClientError
	default:
		return domain.SourceStatus{}, false
	}
	return status, true
}

func classifyError(err error) domain.SourceStatus {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return domain.SourceStatus{Code: domain.StatusTimeout, Detail: err.Error()}
	}
	return domain.SourceStatus{Code: domain.StatusTransportError, Detail: err.Error()}
}
