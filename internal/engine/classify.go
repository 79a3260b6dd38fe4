package engine

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rshade/promptbatch/internal/gateway"
)

// ClassifyError maps a gateway failure to a row status. Provider-side
// failures (HTTP status >= 400, gRPC status errors, timeouts, messages
// mentioning the API, rate limits or quota) are StatusErrorAPI.
func ClassifyError(err error) RowStatus {
	if err == nil {
		return StatusSuccess
	}
	if errors.Is(err, gateway.ErrMissingAPIKey) {
		return StatusErrorMissingKey
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return StatusErrorAPI
	}
	if gateway.HTTPStatus(err) >= http.StatusBadRequest {
		return StatusErrorAPI
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.OK {
		return StatusErrorAPI
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(msg, "API") ||
		strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "quota") {
		return StatusErrorAPI
	}
	return StatusError
}
