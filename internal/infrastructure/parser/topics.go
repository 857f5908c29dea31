package parser

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"BriefingAgent/internal/domain"
	"BriefingAgent/internal/ports"
)

// TopicBank loads the speaking-topic pool from a JSON or YAML file.
type TopicBank struct {
	path string
}

var _ ports.TopicBank = (*TopicBank)(nil)

// NewTopicBank points at the topic file.
func NewTopicBank(path string) *TopicBank {
	return &TopicBank{path: path}
}

// Topics reads the file on every call so edits apply to the next run.
func (b *TopicBank) Topics(_ context.Context) ([]domain.Topic, error) {
	raw, err := os.ReadFile(b.path)
	if err != nil {
		return nil, fmt.Errorf("read topic bank %s: %w", b.path, err)
	}
	return ParseTopics(raw)
}

// ParseTopics decodes a topic list. JSON input works since YAML is a superset.
func ParseTopics(raw []byte) ([]domain.Topic, error) {
	var topics []domain.Topic
	if err := yaml.Unmarshal(raw, &topics); err != nil {
		return nil, fmt.Errorf("decode topic bank: %w", err)
	}
	return topics, nil
}
