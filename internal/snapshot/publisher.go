// Package snapshot publishes each dispatcher tick's state to every
// configured sink: an atomically-written JSON file, a WebSocket broadcast
// hub, Redis pub/sub, and an optional Kafka topic for analytics
// consumers.
package snapshot

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// Sink receives a published snapshot payload, already JSON-encoded.
type Sink interface {
	Publish(ctx context.Context, payload []byte) error
}

// Publisher fans a snapshot payload out to every configured Sink. A sink
// failure is logged and the remaining sinks are still called. Sinks are
// called one after another on the caller's goroutine, so a slow sink
// delays the sinks after it and the caller (the tick loop).
type Publisher struct {
	sinks []Sink
}

// New creates a Publisher with the given sinks.
func New(sinks ...Sink) *Publisher {
	return &Publisher{sinks: sinks}
}

// Publish marshals v to JSON and fans it out to every sink.
func (p *Publisher) Publish(ctx context.Context, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("snapshot: marshal failed")
		return
	}

	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, payload); err != nil {
			log.Error().Err(err).Msg("snapshot: sink publish failed")
		}
	}
}

// RedisSink publishes each snapshot to a Redis pub/sub channel, mirroring
// the location service's per-update redis.Publish broadcast.
type RedisSink struct {
	client  *redis.Client
	channel string
}

// NewRedisSink creates a RedisSink publishing to channel.
func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel}
}

// Publish sends payload to the configured Redis channel.
func (s *RedisSink) Publish(ctx context.Context, payload []byte) error {
	return s.client.Publish(ctx, s.channel, payload).Err()
}

// KafkaSink writes each snapshot to a Kafka topic for analytics consumers,
// mirroring the location service's sendToKafka pattern. Optional: a
// Dispatcher can run with no KafkaSink configured.
type KafkaSink struct {
	writer *kafka.Writer
}

// NewKafkaSink creates a KafkaSink writing to topic on the given
// comma-separated broker list.
func NewKafkaSink(brokers, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(strings.Split(brokers, ",")...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish writes payload as a single Kafka message.
func (s *KafkaSink) Publish(ctx context.Context, payload []byte) error {
	return s.writer.WriteMessages(ctx, kafka.Message{Value: payload})
}

// Close flushes and closes the underlying Kafka writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
