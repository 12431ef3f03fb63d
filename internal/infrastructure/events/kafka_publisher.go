package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/segmentio/kafka-go"
)

var _ ledger.EventPublisher = (*KafkaPublisher)(nil)

// MessageWriter lo que el publicador necesita de *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publica eventos del ledger en un topic; la llave es el producto
// para conservar el orden por producto dentro de la partición.
type KafkaPublisher struct {
	writer MessageWriter
	source string
}

// NewKafkaPublisher crea un writer síncrono hacia brokers/topic.
func NewKafkaPublisher(brokers []string, topic, source string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
	}
	return NewKafkaPublisherWithWriter(w, source)
}

// NewKafkaPublisherWithWriter permite inyectar el writer.
func NewKafkaPublisherWithWriter(w MessageWriter, source string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, source: source}
}

// Publish envía los eventos en un solo lote.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...entity.LedgerEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("serializar evento %s: %w", e.ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.ProductID),
			Value: data,
			Headers: []kafka.Header{
				{Key: "ce-id", Value: []byte(e.ID)},
				{Key: "ce-type", Value: []byte(e.Type)},
				{Key: "ce-source", Value: []byte(p.source)},
				{Key: "ce-time", Value: []byte(e.OccurredAt.Format(time.RFC3339Nano))},
				{Key: "content-type", Value: []byte("application/json")},
			},
			Time: e.OccurredAt,
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publicar %d eventos: %w", len(msgs), err)
	}
	return nil
}

// Close libera el writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
