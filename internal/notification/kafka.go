package notification

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
)

const transactionsTopic = "caderneta.transactions"

// KafkaNotifier publishes messages to a Kafka topic for downstream
// reporting consumers. It is wired only when brokers are configured.
type KafkaNotifier struct {
	writer *kafka.Writer
}

// NewKafkaNotifier constructs a notifier writing to the transactions topic.
func NewKafkaNotifier(brokers []string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    transactionsTopic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Send publishes the message as JSON, keyed by customer id so events for
// one customer stay ordered within a partition.
func (n *KafkaNotifier) Send(ctx context.Context, message Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(message.CustomerID),
		Value: data,
	})
}

// Close flushes and closes the underlying writer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
