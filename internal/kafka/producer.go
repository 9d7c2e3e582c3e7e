package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"ms-admission/internal/models"
)

// Producer streams admission events. Every publish here is fire-and-forget
// from the caller's point of view: scan decisions never wait on Kafka.
type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer}
}

func (p *Producer) publish(topic, key string, payload interface{}) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(context.Background(), kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
}

// Append streams a scan-log entry; together with RecordAdminAction it lets
// the producer serve as an audit sink alongside the database writer.
func (p *Producer) Append(ctx context.Context, entry models.ScanLogEntry) error {
	return p.publish(TopicScanLog, entry.TicketID, entry)
}

func (p *Producer) RecordAdminAction(ctx context.Context, action models.AdminAction) error {
	return p.publish(TopicScanLog, action.TicketID, action)
}

type lifecycleEvent struct {
	Event  string        `json:"event"`
	Ticket models.Ticket `json:"ticket"`
}

// PublishTicketIssued streams a ticket-issued event.
func (p *Producer) PublishTicketIssued(ticket models.Ticket) error {
	return p.publish(TopicTicketLifecycle, ticket.TicketID, lifecycleEvent{Event: "ticket_issued", Ticket: ticket})
}

// PublishTicketCancelled streams a cancellation event.
func (p *Producer) PublishTicketCancelled(ticket models.Ticket) error {
	return p.publish(TopicTicketLifecycle, ticket.TicketID, lifecycleEvent{Event: "ticket_cancelled", Ticket: ticket})
}

// PublishTicketTransferred streams a transfer event.
func (p *Producer) PublishTicketTransferred(ticket models.Ticket) error {
	return p.publish(TopicTicketLifecycle, ticket.TicketID, lifecycleEvent{Event: "ticket_transferred", Ticket: ticket})
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
