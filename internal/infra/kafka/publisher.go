package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/Jeffrey-enterN/entern-match/internal/domain/model"
)

const (
	EventMatchCreated  = "match.created"
	sourceService      = "entern-match"
	eventSchemaVersion = "1"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// EventEnvelope is the payload written for every domain event.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	PartitionKey  string          `json:"partition_key"`
	SourceService string          `json:"source_service"`
	SchemaVersion string          `json:"schema_version"`
	Data          json.RawMessage `json:"data"`
}

type MatchCreatedData struct {
	MatchID     string    `json:"match_id"`
	JobseekerID string    `json:"jobseeker_id"`
	EmployerID  string    `json:"employer_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// MatchEventPublisher writes committed match events so that collaborators
// such as email delivery can react without polling.
type MatchEventPublisher struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

func NewMatchEventPublisher(brokers []string, topic string) (*MatchEventPublisher, error) {
	cleaned := make([]string, 0, len(brokers))
	for _, broker := range brokers {
		if b := strings.TrimSpace(broker); b != "" {
			cleaned = append(cleaned, b)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if strings.TrimSpace(topic) == "" {
		topic = EventMatchCreated
	}

	return newMatchEventPublisher(&kafkago.Writer{
		Addr:                   kafkago.TCP(cleaned...),
		RequiredAcks:           kafkago.RequireAll,
		Balancer:               &kafkago.Hash{},
		AllowAutoTopicCreation: true,
	}, topic), nil
}

func newMatchEventPublisher(writer messageWriter, topic string) *MatchEventPublisher {
	return &MatchEventPublisher{writer: writer, topic: topic, now: time.Now}
}

// MatchCreated publishes match.created keyed by the jobseeker so that every
// event for one jobseeker stays on one partition.
func (p *MatchEventPublisher) MatchCreated(ctx context.Context, match model.Match) error {
	data, err := json.Marshal(MatchCreatedData{
		MatchID:     match.ID.String(),
		JobseekerID: match.JobseekerID.String(),
		EmployerID:  match.EmployerID.String(),
		Status:      string(match.Status),
		CreatedAt:   match.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode match created data: %w", err)
	}

	key := match.JobseekerID.String()
	now := p.now().UTC()
	body, err := json.Marshal(EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     EventMatchCreated,
		OccurredAt:    now,
		PartitionKey:  key,
		SourceService: sourceService,
		SchemaVersion: eventSchemaVersion,
		Data:          data,
	})
	if err != nil {
		return fmt.Errorf("encode event envelope: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafkago.Message{
		Topic: p.topic,
		Key:   []byte(key),
		Value: body,
		Time:  now,
	}); err != nil {
		return fmt.Errorf("write %s: %w", EventMatchCreated, err)
	}
	return nil
}

func (p *MatchEventPublisher) Close() error {
	return p.writer.Close()
}
