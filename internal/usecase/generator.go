package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"BriefingAgent/internal/domain"
	"BriefingAgent/internal/generation"
	"BriefingAgent/internal/ports"
	"BriefingAgent/internal/records"
	"BriefingAgent/internal/selector"
)

// GeneratorDeps wires all driven adapters into the generation pipeline.
type GeneratorDeps struct {
	Selectors *selector.Registry
	Prompts   *generation.Builder
	Model     ports.ContentGenerator
	Records   *records.Store
	History   ports.HistoryRepository
	Notifier  ports.ReviewNotifier
	Logger    *slog.Logger

	Location     *time.Location
	RolloverHour int
	Now          func() time.Time
}

// Generator runs select -> prompt -> generate -> append for one task.
type Generator struct {
	selectors    *selector.Registry
	prompts      *generation.Builder
	model        ports.ContentGenerator
	records      *records.Store
	history      ports.HistoryRepository
	notifier     ports.ReviewNotifier
	logger       *slog.Logger
	location     *time.Location
	rolloverHour int
	now          func() time.Time
}

// scoped is implemented by selectors that deduplicate against a history.
type scoped interface {
	HistoryScope() string
}

// NewGenerator constructs the orchestration component.
func NewGenerator(deps GeneratorDeps) *Generator {
	g := &Generator{
		selectors:    deps.Selectors,
		prompts:      deps.Prompts,
		model:        deps.Model,
		records:      deps.Records,
		history:      deps.History,
		notifier:     deps.Notifier,
		logger:       deps.Logger,
		location:     deps.Location,
		rolloverHour: deps.RolloverHour,
		now:          deps.Now,
	}
	if g.logger == nil {
		g.logger = slog.New(slog.DiscardHandler)
	}
	if g.location == nil {
		g.location = time.UTC
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

// TargetDay is the calendar day content is prepared for. From the rollover
// hour on, drafts are for tomorrow.
func TargetDay(now time.Time, loc *time.Location, rolloverHour int) time.Time {
	local := now.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	if rolloverHour > 0 && local.Hour() >= rolloverHour {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

// Generate produces one new Pending record for task. Rotation progress is
// committed by the selector before the model is called; dedup history is
// committed only once the record has been stored.
func (g *Generator) Generate(ctx context.Context, task domain.TaskType, opts selector.Options) (domain.ContentRecord, error) {
	sel, err := g.selectors.Resolve(task)
	if err != nil {
		return domain.ContentRecord{}, err
	}

	day := TargetDay(g.now(), g.location, g.rolloverHour)
	logger := g.logger.With("task", task, "day", day.Format(time.DateOnly))

	selection, err := sel.Select(ctx, day, opts)
	if err != nil {
		return domain.ContentRecord{}, fmt.Errorf("select %s: %w", task, err)
	}

	prompt, err := g.prompts.Build(selection)
	if err != nil {
		return domain.ContentRecord{}, fmt.Errorf("build %s prompt: %w", task, err)
	}

	logger.Info("generating", "model", prompt.Model)
	output, err := g.model.Generate(ctx, prompt)
	if err != nil {
		return domain.ContentRecord{}, fmt.Errorf("generate %s: %w: %w", task, domain.ErrGeneration, err)
	}
	body := generation.Clean(output)
	if strings.TrimSpace(body) == "" {
		return domain.ContentRecord{}, fmt.Errorf("generate %s: %w: empty output", task, domain.ErrGeneration)
	}

	record := domain.ContentRecord{
		Date:    day.Format(time.DateOnly),
		Task:    task,
		Subject: generation.Subject(task, day),
		Body:    body,
		Status:  domain.StatusPending,
	}
	if err := g.records.Append(ctx, record); err != nil {
		return domain.ContentRecord{}, fmt.Errorf("store %s record: %w", task, err)
	}

	if id := selection.DedupID(); id != "" {
		scope := string(task)
		if s, ok := sel.(scoped); ok {
			scope = s.HistoryScope()
		}
		if err := g.remember(ctx, scope, id); err != nil {
			logger.Error("dedup history not saved", "id", id, "error", err)
		}
	}

	if g.notifier != nil {
		if err := g.notifier.NotifyPending(ctx, record); err != nil {
			logger.Warn("review notification failed", "error", err)
		}
	}

	logger.Info("record staged", "subject", record.Subject)
	return record, nil
}

func (g *Generator) remember(ctx context.Context, scope, id string) error {
	if g.history == nil {
		return nil
	}
	history, err := g.history.Load(ctx, scope)
	if err != nil {
		return fmt.Errorf("load history %s: %w", scope, err)
	}
	if history == nil {
		history = domain.NewHistory()
	}
	history.Add(id)
	if err := g.history.Save(ctx, scope, history); err != nil {
		return fmt.Errorf("save history %s: %w", scope, err)
	}
	return nil
}
