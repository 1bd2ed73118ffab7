package kafka

import (
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducerMessageOrdersHeaders(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	p := &Producer{now: func() time.Time { return at }}

	msg := p.message("booking.events.v1", "b-1", []byte(`{}`), map[string]string{
		"correlation_id": "req-1",
		"content-type":   "application/cloudevents+json",
	})

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "content-type", string(msg.Headers[0].Key))
	assert.Equal(t, "correlation_id", string(msg.Headers[1].Key))
	assert.Equal(t, sarama.StringEncoder("b-1"), msg.Key)
	assert.Equal(t, at.UTC(), msg.Timestamp)
}

func TestProducerMessageWithoutKey(t *testing.T) {
	p := &Producer{now: time.Now}
	msg := p.message("t", "", nil, nil)
	assert.Nil(t, msg.Key)
	assert.Empty(t, msg.Headers)
}
