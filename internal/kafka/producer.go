package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-gallery/internal/config"
	"ms-gallery/internal/logger"
	"ms-gallery/internal/models"
)

// Writer is the part of kafka.Writer the producer needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer Writer
	Topics config.TopicConfig
	Logger *logger.Logger
}

func NewProducer(brokers []string, topics config.TopicConfig, log *logger.Logger) *Producer {
	// Topic is set per message so one writer serves every gallery topic
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return &Producer{Writer: writer, Topics: topics, Logger: log}
}

func (p *Producer) topicFor(eventType string) (string, error) {
	switch eventType {
	case models.GalleryEventImageSubmitted:
		return p.Topics.ImageSubmitted, nil
	case models.GalleryEventImageModerated:
		return p.Topics.ImageModerated, nil
	case models.GalleryEventImageDeleted:
		return p.Topics.ImageDeleted, nil
	case models.GalleryEventLikeToggled:
		return p.Topics.LikeToggled, nil
	case models.GalleryEventEventChanged:
		return p.Topics.EventChanged, nil
	default:
		return "", fmt.Errorf("unknown gallery event type %q", eventType)
	}
}

// Publish streams a gallery event to its topic, keyed by image (or event) id so
// changes to the same entity stay ordered within a partition.
func (p *Producer) Publish(ctx context.Context, event models.GalleryEvent) error {
	topic, err := p.topicFor(event.Type)
	if err != nil {
		return err
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	key := event.ImageID
	if key == "" {
		key = event.EventID
	}

	if err := p.Writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: msgBytes,
	}); err != nil {
		p.Logger.LogKafka("PUBLISH_FAILED", topic, err.Error())
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	p.Logger.LogKafka("PUBLISHED", topic, string(msgBytes))
	return nil
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// Disabled drops every event; used when KAFKA_ENABLED=false.
type Disabled struct{}

func (Disabled) Publish(ctx context.Context, event models.GalleryEvent) error { return nil }

func (Disabled) Close() error { return nil }
