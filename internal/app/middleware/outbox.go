package middleware

import (
	"context"
	"log/slog"

	"rentalspot/internal/app/commands"
	"rentalspot/internal/app/outbox"
)

// OutboxFlush wakes the relay after every successful command. The command has already
// committed when Flush runs, so a flush failure is logged and the result still returned;
// the relay picks the events up on its next poll.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				logger.Warn("outbox flush failed", "command", cmd.Key(), "error", err)
			}
			return res, nil
		})
	}
}
