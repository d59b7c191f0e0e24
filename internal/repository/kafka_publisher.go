package repository

import (
	"context"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/repository"
	pkgkafka "CoinPulse/pkg/kafka"
)

// scorecardEvent is the wire shape of a published scorecard.
type scorecardEvent struct {
	Type string            `json:"type"`
	Card *models.ScoreCard `json:"scorecard"`
}

// KafkaPublisher emits scorecards keyed by coin id, and doubles as the log
// collector's publisher.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

var _ repository.ScorecardPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishScorecard(ctx context.Context, card *models.ScoreCard) error {
	return p.producer.Publish(ctx, p.topic, []byte(card.AssetID), scorecardEvent{Type: "scorecard", Card: card})
}

// PublishMessage implements logger.Publisher.
func (p *KafkaPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
