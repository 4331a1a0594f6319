package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

type Writer = kafka.Writer

func NewWriter(brokers string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(strings.Split(brokers, ",")...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           10 * time.Second,
	}
}

// helper pra enviar mensagem simples
func WriteJSON(ctx context.Context, w *kafka.Writer, key string, payload []byte) error {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now(),
	}

	return w.WriteMessages(ctx, msg)
}

// JSONPublisher serializa eventos e publica num tópico fixo, usando a chave como partição lógica
type JSONPublisher struct {
	w *kafka.Writer
}

func NewJSONPublisher(brokers, topic string) *JSONPublisher {
	return &JSONPublisher{w: NewWriter(brokers, topic)}
}

func (p *JSONPublisher) Publish(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %T: %w", v, err)
	}
	if err := WriteJSON(ctx, p.w, key, b); err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	return nil
}

func (p *JSONPublisher) Close() error {
	return p.w.Close()
}
