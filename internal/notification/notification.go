package notification

import (
	"context"
	"log/slog"
	"time"
)

const (
	// KindTransactionRecorded indicates a credit sale or payment was committed.
	KindTransactionRecorded = "transaction_recorded"
	// KindTabSettled indicates a payment cleared a customer's tab.
	KindTabSettled = "tab_settled"
)

// Message describes a downstream event emitted after a commit.
type Message struct {
	Kind         string    `json:"kind"`
	CustomerID   string    `json:"customer_id,omitempty"`
	CustomerName string    `json:"customer_name,omitempty"`
	Amount       float64   `json:"amount"`
	Balance      float64   `json:"balance"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Notifier delivers messages to downstream systems. Delivery is best
// effort; sends happen after the storage commit and never roll it back.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes messages to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		"kind", message.Kind,
		"customer_id", message.CustomerID,
		"customer_name", message.CustomerName,
		"amount", message.Amount,
		"balance", message.Balance,
	)
	return nil
}
