// Package notification defines the contract for delivering notices to
// library users, plus a console implementation that logs each notice as a
// JSON envelope.
package notification

import (
	"context"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Notice is the machine-readable envelope a notifier delivers.
type Notice struct {
	Kind    string    `json:"kind"`
	UserID  string    `json:"user_id,omitempty"`
	ItemID  string    `json:"item_id,omitempty"`
	LoanID  string    `json:"loan_id,omitempty"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// KindOverdue marks notices produced by the overdue scan.
const KindOverdue = "overdue"

// Notifier delivers notices. Implementations decide the transport;
// delivery mechanics beyond this contract are out of scope here.
type Notifier interface {
	Send(ctx context.Context, notice Notice) error
}

var marshal = jsoniter.ConfigCompatibleWithStandardLibrary

// ConsoleNotifier writes each notice to a structured logger, with the
// full JSON envelope attached for downstream consumers.
type ConsoleNotifier struct {
	logger *slog.Logger
}

// NewConsoleNotifier builds a console notifier over the given logger,
// falling back to slog.Default when nil.
func NewConsoleNotifier(logger *slog.Logger) *ConsoleNotifier {
	if logger == nil {
		logger = slog.Default()
	}

	return &ConsoleNotifier{logger: logger}
}

// Send logs the notice at info level together with its JSON envelope.
func (n *ConsoleNotifier) Send(ctx context.Context, notice Notice) error {
	envelope, err := marshal.MarshalToString(notice)
	if err != nil {
		return err
	}

	n.logger.InfoContext(ctx, "notification sent",
		"kind", notice.Kind,
		"user_id", notice.UserID,
		"item_id", notice.ItemID,
		"envelope", envelope,
	)

	return nil
}

var _ Notifier = (*ConsoleNotifier)(nil)
