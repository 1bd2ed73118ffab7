package kafka

import (
	"context"
	"sort"
	"time"

	"github.com/IBM/sarama"
)

// Producer publishes relayed events synchronously. Delivery is idempotent
// per partition, keyed by aggregate id so events of one listing stay ordered.
type Producer struct {
	sync sarama.SyncProducer
	now  func() time.Time
}

func NewProducer(brokers []string, clientID string, cfg *sarama.Config) (*Producer, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Version = sarama.V2_5_0_0
	cfg.ClientID = clientID
	if cfg.ClientID == "" {
		cfg.ClientID = "locadz-api"
	}
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Return.Successes = true
	cfg.Producer.Retry.Max = 5
	cfg.Net.MaxOpenRequests = 1
	sync, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &Producer{sync: sync, now: time.Now}, nil
}

func (p *Producer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := p.sync.SendMessage(p.message(topic, key, payload, headers))
	return err
}

func (p *Producer) message(topic, key string, payload []byte, headers map[string]string) *sarama.ProducerMessage {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	records := make([]sarama.RecordHeader, 0, len(names))
	for _, name := range names {
		records = append(records, sarama.RecordHeader{Key: []byte(name), Value: []byte(headers[name])})
	}
	msg := &sarama.ProducerMessage{
		Topic:     topic,
		Value:     sarama.ByteEncoder(payload),
		Headers:   records,
		Timestamp: p.now().UTC(),
	}
	if key != "" {
		msg.Key = sarama.StringEncoder(key)
	}
	return msg
}

func (p *Producer) Close() error {
	if p.sync == nil {
		return nil
	}
	return p.sync.Close()
}
