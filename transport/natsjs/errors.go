package natsjs

import (
	"errors"
	"strings"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/reflow/types"
)

// Synthetic event codes for conditions JetStream reports through error
// channels rather than a dedicated event stream.
const (
	replayStartedCode          = 503
	replayStartUnavailableCode = 400
)

// bindError wraps a JetStream failure into a *types.BindError, lifting
// the API error code when one is present.
func bindError(err error, reason string) *types.BindError {
	be := &types.BindError{
		Reason: reason,
		Err:    err,
	}

	var apiErr *jetstream.APIError
	if errors.As(err, &apiErr) {
		be.Code = int(apiErr.ErrorCode)
	}

	return be
}

// isAlreadyInUse reports whether a stream creation failed because the
// stream already exists.
func isAlreadyInUse(err error) bool {
	return errors.Is(err, jetstream.ErrStreamNameAlreadyInUse)
}

// isConsumerGone reports whether an error means the consumer no longer
// exists on the server.
func isConsumerGone(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, jetstream.ErrConsumerNotFound) ||
		errors.Is(err, jetstream.ErrConsumerDeleted) ||
		strings.Contains(err.Error(), "consumer deleted") ||
		strings.Contains(err.Error(), "consumer not found")
}
