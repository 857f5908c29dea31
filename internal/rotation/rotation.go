package rotation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"BriefingAgent/internal/domain"
	"BriefingAgent/internal/ports"
)

// DefaultSampleSize is how many follow-up questions accompany a topic.
const DefaultSampleSize = 3

// Pick is the outcome of one rotation step.
type Pick struct {
	Index     int
	Topic     domain.Topic
	Questions []string
}

// Index walks a fixed topic pool cyclically, persisting its pointer under key.
type Index struct {
	repo       ports.RotationRepository
	key        string
	sampleSize int
	rng        *rand.Rand
	logger     *slog.Logger
}

// Option customizes an Index.
type Option func(*Index)

// WithSampleSize overrides how many questions are drawn per topic.
func WithSampleSize(n int) Option {
	return func(ix *Index) {
		if n > 0 {
			ix.sampleSize = n
		}
	}
}

// WithRand injects the random source used for question sampling.
func WithRand(rng *rand.Rand) Option {
	return func(ix *Index) {
		if rng != nil {
			ix.rng = rng
		}
	}
}

// New builds an Index over repo for the given rotation key.
func New(repo ports.RotationRepository, key string, logger *slog.Logger, opts ...Option) *Index {
	ix := &Index{
		repo:       repo,
		key:        key,
		sampleSize: DefaultSampleSize,
		rng:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Next selects the due topic and advances the stored pointer by exactly one
// past it. forcedID is the 1-based topic position to jump to; zero means
// follow the stored pointer. The pointer is saved before any generation
// happens so one bad topic cannot stall the rotation.
func (ix *Index) Next(ctx context.Context, day time.Time, topics []domain.Topic, forcedID int) (Pick, error) {
	total := len(topics)
	if total == 0 {
		return Pick{}, fmt.Errorf("rotation %s: empty topic pool: %w", ix.key, domain.ErrNoCandidate)
	}

	var selected int
	if forcedID != 0 {
		selected = forcedID - 1
		ix.debug("forced topic", "id", forcedID)
	} else {
		state, err := ix.repo.Load(ctx, ix.key)
		if err != nil {
			return Pick{}, fmt.Errorf("load rotation %s: %w", ix.key, err)
		}
		selected = state.CurrentIndex
		if selected >= total || selected < 0 {
			ix.debug("rotation completed a full cycle", "stored_index", selected, "total", total)
			selected = 0
		}
	}

	final := normalize(selected, total)
	topic := topics[final]

	next := domain.RotationState{
		CurrentIndex: final + 1,
		LastUpdated:  day.Format(time.DateOnly),
		LastLabel:    topic.Name,
	}
	if err := ix.repo.Save(ctx, ix.key, next); err != nil {
		return Pick{}, fmt.Errorf("save rotation %s: %w", ix.key, err)
	}

	ix.debug("topic selected", "index", final, "topic", topic.Name, "next_index", next.CurrentIndex)

	return Pick{
		Index:     final,
		Topic:     topic,
		Questions: Sample(ix.rng, topic.Questions, ix.sampleSize),
	}, nil
}

// Sample draws k items without replacement, or returns the whole pool when it
// has k or fewer items. The draw is deliberately unseeded across runs.
func Sample(rng *rand.Rand, pool []string, k int) []string {
	if len(pool) <= k {
		return append([]string(nil), pool...)
	}
	picked := make([]string, 0, k)
	for _, i := range rng.Perm(len(pool))[:k] {
		picked = append(picked, pool[i])
	}
	return picked
}

func normalize(index, total int) int {
	return ((index % total) + total) % total
}

func (ix *Index) debug(msg string, args ...any) {
	if ix.logger != nil {
		ix.logger.Debug(msg, append([]any{"rotation", ix.key}, args...)...)
	}
}
