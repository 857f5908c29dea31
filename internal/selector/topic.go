package selector

import (
	"context"
	"fmt"
	"time"

	"BriefingAgent/internal/domain"
	"BriefingAgent/internal/ports"
	"BriefingAgent/internal/rotation"
)

// TopicSelector serves the fixed-rotation variant. The pool is a closed,
// pre-vetted list, so no filtering happens here.
type TopicSelector struct {
	task  domain.TaskType
	bank  ports.TopicBank
	index *rotation.Index
}

var _ Selector = (*TopicSelector)(nil)

// NewTopicSelector wires a topic bank with its rotation index.
func NewTopicSelector(task domain.TaskType, bank ports.TopicBank, index *rotation.Index) *TopicSelector {
	return &TopicSelector{task: task, bank: bank, index: index}
}

// Task identifies the selector inside the registry.
func (s *TopicSelector) Task() domain.TaskType {
	return s.task
}

// Select advances the rotation once and returns the due topic.
func (s *TopicSelector) Select(ctx context.Context, day time.Time, opts Options) (domain.Selection, error) {
	topics, err := s.bank.Topics(ctx)
	if err != nil {
		return domain.Selection{}, fmt.Errorf("load topics: %w", err)
	}

	pick, err := s.index.Next(ctx, day, topics, opts.ForcedTopicID)
	if err != nil {
		return domain.Selection{}, err
	}

	topic := pick.Topic
	return domain.Selection{
		Task:      s.task,
		Day:       day,
		Topic:     &topic,
		Questions: pick.Questions,
	}, nil
}
