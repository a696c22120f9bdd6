package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/sharego/internal/models"
)

// KafkaProducer fans ride lifecycle events and live locations out to Kafka.
type KafkaProducer struct {
	locations *kafka.Writer
	rides     *kafka.Writer
}

func NewKafkaProducer(brokers []string, locationTopic, rideTopic string) *KafkaProducer {
	return &KafkaProducer{
		locations: kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: locationTopic, Balancer: &kafka.LeastBytes{}}),
		rides:     kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: rideTopic, Balancer: &kafka.LeastBytes{}}),
	}
}

func (k *KafkaProducer) PublishLocation(u models.LocationUpdate) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, _ := json.Marshal(u)
	return k.locations.WriteMessages(ctx, kafka.Message{Key: []byte(u.PartyID), Value: b})
}

func (k *KafkaProducer) PublishRideEvent(ctx context.Context, ev models.RideEvent) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	b, _ := json.Marshal(ev)
	return k.rides.WriteMessages(ctx, kafka.Message{Key: []byte(ev.PostID), Value: b})
}

func (k *KafkaProducer) Close() error {
	var err error
	if k.locations != nil {
		err = k.locations.Close()
	}
	if k.rides != nil {
		if cerr := k.rides.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
