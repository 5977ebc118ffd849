// Package dispatch runs one delivery pass of a message over a recipient set.
package dispatch

import (
	"context"
	"log/slog"

	"github.com/shineum/mail-dispatch/internal/email"
	"github.com/shineum/mail-dispatch/internal/provider"
)

// Summary holds the per-run delivery tally. It is produced fresh for every
// run and reported once.
type Summary struct {
	Sent   int
	Failed int
}

// Run delivers the message to every recipient in order, one at a time. A
// failure for one recipient never stops the pass; it is logged, counted, and
// the next recipient is attempted. Failed deliveries are not retried within
// the run; an independent later run is the only reattempt path.
func Run(ctx context.Context, p provider.Provider, msg *email.Message, recipients []string) Summary {
	slog.Info("dispatch run starting",
		"provider", p.Name(),
		"recipients", len(recipients),
	)

	var sum Summary
	for _, recipient := range recipients {
		if err := p.Send(ctx, msg, recipient); err != nil {
			sum.Failed++
			slog.Error("delivery failed",
				"recipient", recipient,
				"provider", p.Name(),
				"error", err,
			)
			continue
		}
		sum.Sent++
		slog.Info("delivered",
			"recipient", recipient,
			"provider", p.Name(),
		)
	}

	slog.Info("dispatch run complete",
		"sent", sum.Sent,
		"failed", sum.Failed,
		"recipients", len(recipients),
	)
	return sum
}
