package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type DeadLetter interface {
	Publish(ctx context.Context, task Task, cause error) error
}

type deadLetterRecord struct {
	Task     Task      `json:"task"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

type LogDeadLetter struct {
	log *logrus.Logger
}

func NewLogDeadLetter(log *logrus.Logger) *LogDeadLetter {
	return &LogDeadLetter{log: log}
}

func (d *LogDeadLetter) Publish(_ context.Context, task Task, cause error) error {
	d.log.WithFields(logrus.Fields{
		"job_id":    task.ID,
		"kind":      task.Kind,
		"entity_id": task.EntityID,
		"due_at":    task.DueAt,
	}).WithError(cause).Warn("dead letter")
	return nil
}

// KafkaDeadLetter appends failed jobs to a Kafka topic keyed by entity id.
type KafkaDeadLetter struct {
	writer *kafka.Writer
}

func NewKafkaDeadLetter(brokers []string, topic string) *KafkaDeadLetter {
	return &KafkaDeadLetter{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (d *KafkaDeadLetter) Publish(ctx context.Context, task Task, cause error) error {
	body, err := json.Marshal(deadLetterRecord{Task: task, Error: cause.Error(), FailedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode dead letter: %w", err)
	}
	return d.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(task.EntityID.String()),
		Value: body,
	})
}

func (d *KafkaDeadLetter) Close() error {
	return d.writer.Close()
}
