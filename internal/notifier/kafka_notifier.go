package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wedding-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Header keys, shared with the consumers of the notification topic.
const (
	HeaderEventID   = "event-id"
	HeaderEventType = "event-type"
	HeaderSource    = "source"
	HeaderTimestamp = "timestamp"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes one JSON event per notification, keyed by booking
// id so events for a booking stay ordered on one partition.
type KafkaNotifier struct {
	writer messageWriter
	source string
	log    *zap.Logger
	now    func() time.Time
}

func NewKafkaNotifier(brokers []string, topic, source string, log *zap.Logger) (*KafkaNotifier, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}

	log = log.With(zap.String("component", "kafka_notifier"), zap.String("topic", topic))
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		BatchTimeout: 50 * time.Millisecond,
		Logger:       kafka.LoggerFunc(func(string, ...any) {}),
		ErrorLogger:  kafka.LoggerFunc(log.Sugar().Errorf),
	}

	return newKafkaNotifier(writer, source, log), nil
}

func newKafkaNotifier(w messageWriter, source string, log *zap.Logger) *KafkaNotifier {
	return &KafkaNotifier{writer: w, source: source, log: log, now: time.Now}
}

func (n *KafkaNotifier) publish(ctx context.Context, e BookingEvent) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s event for booking %s: %w", e.EventType, e.BookingID, err)
	}

	msg := kafka.Message{
		Key:   []byte(e.BookingID),
		Value: value,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: HeaderEventID, Value: []byte(uuid.New().String())},
			{Key: HeaderEventType, Value: []byte(e.EventType)},
			{Key: HeaderSource, Value: []byte(n.source)},
			{Key: HeaderTimestamp, Value: []byte(e.OccurredAt.Format(time.RFC3339))},
		},
	}

	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s event for booking %s: %w", e.EventType, e.BookingID, err)
	}

	n.log.Debug("Notification published",
		zap.String("event_type", e.EventType),
		zap.String("booking_id", e.BookingID),
	)
	return nil
}

func (n *KafkaNotifier) SendAutoCancellationNotification(ctx context.Context, b *entity.Booking, reason string) error {
	return n.publish(ctx, newBookingEvent(EventAutoCancelled, b, reason, n.now()))
}

func (n *KafkaNotifier) SendDepositDueDateReminder(ctx context.Context, b *entity.Booking) error {
	return n.publish(ctx, newBookingEvent(EventDepositDueReminder, b, "", n.now()))
}

func (n *KafkaNotifier) SendFinalPaymentDueDateReminder(ctx context.Context, b *entity.Booking) error {
	return n.publish(ctx, newBookingEvent(EventFinalPaymentDueReminder, b, "", n.now()))
}

// Close flushes pending messages and closes the writer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
