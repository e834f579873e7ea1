package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/slotline/slotline/libs/kafkax"
	"github.com/slotline/slotline/services/scheduling-service/internal/model"
)

// Appointment lifecycle event types; the Kafka topic name equals the type.
const (
	TypeBooked    = "scheduling.appointment.booked.v1"
	TypeModified  = "scheduling.appointment.modified.v1"
	TypeCancelled = "scheduling.appointment.cancelled.v1"
)

// Publisher emits appointment lifecycle events. Implementations must not
// block the booking path.
type Publisher interface {
	Publish(ctx context.Context, eventType string, appt model.Appointment)
}

// Nop discards events; used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, model.Appointment) {}

// Kafka buffers events in memory and writes them from a background goroutine,
// keyed by appointment ID so one appointment's events stay ordered. Events are
// best-effort: a full buffer drops the event with a warning rather than
// stalling a booking request.
type Kafka struct {
	writer *kafka.Writer
	logger *slog.Logger
	queue  chan kafka.Message
}

func NewKafka(brokers string, logger *slog.Logger) *Kafka {
	return &Kafka{
		writer: kafka.NewWriter(kafka.WriterConfig{
			Brokers:  kafkax.SplitBrokers(brokers),
			Balancer: &kafka.Hash{},
		}),
		logger: logger,
		queue:  make(chan kafka.Message, 256),
	}
}

func (p *Kafka) Publish(ctx context.Context, eventType string, appt model.Appointment) {
	payload, err := json.Marshal(map[string]any{
		"appointment_id": appt.ID,
		"business_id":    appt.BusinessID,
		"customer_id":    appt.CustomerID,
		"staff_id":       appt.StaffID,
		"service_id":     appt.ServiceID,
		"start_time":     appt.StartTime.UTC().Format(time.RFC3339),
		"end_time":       appt.EndTime.UTC().Format(time.RFC3339),
		"status":         appt.Status,
	})
	if err != nil {
		p.logger.Error("failed to build event payload", "err", err, "event_type", eventType)
		return
	}

	msg := kafka.Message{
		Topic: eventType,
		Key:   []byte(appt.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(uuid.NewString())},
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	// Capture the caller's trace context before handing off to the writer
	// goroutine.
	msg.Headers = kafkax.InjectTraceHeaders(ctx, msg.Headers)

	select {
	case p.queue <- msg:
	default:
		p.logger.Warn("event buffer full, dropping event",
			"event_type", eventType, "appointment_id", appt.ID)
	}
}

// Run drains the buffer until ctx is cancelled.
func (p *Kafka) Run(ctx context.Context) {
	defer p.writer.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-p.queue:
			if err := p.writer.WriteMessages(ctx, msg); err != nil && ctx.Err() == nil {
				p.logger.Error("event publish failed", "err", err, "topic", msg.Topic)
			}
		}
	}
}
