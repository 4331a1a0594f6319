package kafka

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func TestNewWriter(t *testing.T) {
	w := NewWriter("b1:9092,b2:9092", "bet_settled")
	assert.Equal(t, "bet_settled", w.Topic)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
}

func TestPublish_MarshalError(t *testing.T) {
	p := NewJSONPublisher("localhost:9092", "predictions")
	defer p.Close()

	err := p.Publish(context.Background(), "k", make(chan int))
	assert.ErrorContains(t, err, "marshal chan int")
}
