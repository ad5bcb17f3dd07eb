package subscriber

import (
	"context"

	"github.com/seriesdash/seriesdash/internal/logging"
	"github.com/seriesdash/seriesdash/internal/queue"
)

// RunEventHandler receives decoded run events
type RunEventHandler func(ctx context.Context, ev queue.RunEvent) error

// RunEvents decodes queue frames before calling h. Frames that do not
// decode are logged and acknowledged; redelivery could not fix them.
func RunEvents(logger *logging.Logger, h RunEventHandler) MessageHandler {
	if logger == nil {
		logger = logging.Global()
	}
	return func(ctx context.Context, subject string, data []byte) error {
		ev, err := queue.DecodeRunEvent(data)
		if err != nil {
			logger.Warn("Dropping undecodable run event", "subject", subject, "bytes", len(data), "error", err)
			return nil
		}
		return h(ctx, ev)
	}
}
