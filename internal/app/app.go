package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"BriefingAgent/internal/config"
	"BriefingAgent/internal/domain"
	"BriefingAgent/internal/filter"
	"BriefingAgent/internal/generation"
	"BriefingAgent/internal/infrastructure/llm"
	"BriefingAgent/internal/infrastructure/mail"
	"BriefingAgent/internal/infrastructure/parser"
	"BriefingAgent/internal/infrastructure/scheduler"
	"BriefingAgent/internal/infrastructure/storage"
	"BriefingAgent/internal/infrastructure/telegram"
	"BriefingAgent/internal/logging"
	"BriefingAgent/internal/ports"
	"BriefingAgent/internal/records"
	"BriefingAgent/internal/rotation"
	"BriefingAgent/internal/selector"
	"BriefingAgent/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg         config.Config
	logger      *slog.Logger
	store       *storage.Store
	records     *records.Store
	generator   *usecase.Generator
	dispatcher  *usecase.Dispatcher
	subscribers *records.Subscribers
}

// New opens storage and builds every adapter from cfg.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.Filter.FetchTimeout}
	feeds := parser.NewFeedFetcher(httpClient, logging.Component(baseLogger, "parser.feed"))
	articles := parser.NewArticleFetcher(httpClient, logging.Component(baseLogger, "parser.article"))

	registry := selector.NewRegistry()
	registry.Register(selector.NewDigestSelector(selector.DigestSelectorDeps{
		Task:         domain.TaskMorning,
		Sources:      cfg.Tasks.Morning.Sources,
		PerSource:    cfg.Tasks.Morning.PerSource,
		SummaryChars: cfg.Tasks.Morning.SummaryChars,
		FetchTimeout: cfg.Filter.FetchTimeout,
		Feeds:        feeds,
		Filter: filter.New(filter.Policy{
			Window: hours(cfg.Filter.WindowHours),
		}, logging.Component(baseLogger, "filter.morning")),
		Logger: logging.Component(baseLogger, "selector.morning"),
	}))

	index := rotation.New(store.Rotation(), cfg.Tasks.Afternoon.RotationKey,
		logging.Component(baseLogger, "rotation"),
		rotation.WithSampleSize(cfg.Tasks.Afternoon.SampleSize))
	registry.Register(selector.NewTopicSelector(domain.TaskAfternoon,
		parser.NewTopicBank(cfg.Tasks.Afternoon.TopicsPath), index))

	registry.Register(selector.NewArticleSelector(selector.ArticleSelectorDeps{
		Task:         domain.TaskEvening,
		Sources:      cfg.Tasks.Evening.Sources,
		PerSource:    cfg.Tasks.Evening.PerSource,
		FetchTimeout: cfg.Filter.FetchTimeout,
		HistoryScope: cfg.Tasks.Evening.HistoryScope,
		Feeds:        feeds,
		Articles:     articles,
		Filter: filter.New(filter.Policy{
			Window:      hours(cfg.Tasks.Evening.WindowHours),
			MinWords:    cfg.Filter.MinWords,
			MaxWords:    cfg.Filter.MaxWords,
			BannedTerms: cfg.Filter.BannedTerms,
		}, logging.Component(baseLogger, "filter.evening")),
		History: store.History(),
		Logger:  logging.Component(baseLogger, "selector.evening"),
	}))

	prompts := generation.NewBuilder(map[domain.TaskType]generation.Settings{
		domain.TaskMorning:   {Model: cfg.LLM.ChatModel, Temperature: cfg.Tasks.Morning.Temperature, MaxTokens: 8000},
		domain.TaskAfternoon: {Model: cfg.LLM.ReasoningModel, Temperature: cfg.Tasks.Afternoon.Temperature},
		domain.TaskEvening:   {Model: cfg.LLM.ReasoningModel, Temperature: cfg.Tasks.Evening.Temperature},
	})

	var notifier ports.ReviewNotifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		notifier = telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	}

	recordStore := records.NewStore(store, cfg.Sheets.Records, logging.Component(baseLogger, "records"))

	generator := usecase.NewGenerator(usecase.GeneratorDeps{
		Selectors:    registry,
		Prompts:      prompts,
		Model:        llm.NewChatClient(cfg.LLM),
		Records:      recordStore,
		History:      store.History(),
		Notifier:     notifier,
		Logger:       logging.Component(baseLogger, "generator"),
		Location:     cfg.Schedule.Location(),
		RolloverHour: cfg.Schedule.RolloverHour,
	})

	var mailer ports.Mailer
	if m, err := mail.NewMailer(cfg.Mail, logging.Component(baseLogger, "mail")); err != nil {
		baseLogger.Warn("mail disabled", "error", err)
	} else {
		mailer = m
	}

	dispatcher := usecase.NewDispatcher(usecase.DispatcherDeps{
		Records:     recordStore,
		Mailer:      mailer,
		Regenerator: generator,
		Logger:      logging.Component(baseLogger, "dispatcher"),
	})

	return &Application{
		cfg:         cfg,
		logger:      baseLogger,
		store:       store,
		records:     recordStore,
		generator:   generator,
		dispatcher:  dispatcher,
		subscribers: records.NewSubscribers(store, cfg.Sheets.Users, logging.Component(baseLogger, "subscribers")),
	}, nil
}

// Close releases storage.
func (a *Application) Close() error {
	return a.store.Close()
}

// Generate stages one new Pending record for task. forcedTopic is the
// 1-based topic ID for the rotation task; 0 means the next one.
func (a *Application) Generate(ctx context.Context, task domain.TaskType, forcedTopic int) (domain.ContentRecord, error) {
	return a.generator.Generate(ctx, task, selector.Options{ForcedTopicID: forcedTopic})
}

// Send runs one send pass; an empty task sends every task.
func (a *Application) Send(ctx context.Context, task domain.TaskType) (usecase.Report, error) {
	today := time.Now().In(a.cfg.Schedule.Location())
	recipients := usecase.ResolveRecipients(ctx, a.subscribers, a.cfg.Mail.Recipients, today, a.logger)
	return a.dispatcher.Send(ctx, task, recipients)
}

// Monitor runs one monitor pass.
func (a *Application) Monitor(ctx context.Context) (usecase.Report, error) {
	return a.dispatcher.Monitor(ctx)
}

// Records lists every well-formed record in sheet order.
func (a *Application) Records(ctx context.Context) ([]records.Entry, error) {
	return a.records.Scan(ctx)
}

// Review records a reviewer decision (Approved or Reject) on a row.
func (a *Application) Review(ctx context.Context, row int, decision domain.Status) (domain.ContentRecord, error) {
	return a.records.Review(ctx, row, decision)
}

// AddSubscriber appends a recipient active until expiry.
func (a *Application) AddSubscriber(ctx context.Context, email, name string, expiry time.Time) error {
	return a.subscribers.Add(ctx, email, name, expiry)
}

// Subscribers lists every row of the users sheet.
func (a *Application) Subscribers(ctx context.Context) ([]records.Subscriber, error) {
	return a.subscribers.List(ctx)
}

// Serve runs monitor passes on the configured interval until ctx ends.
func (a *Application) Serve(ctx context.Context) error {
	sched := usecase.NewScheduler(
		scheduler.NewIntervalScheduler(a.cfg.Schedule.MonitorInterval),
		a.dispatcher,
		logging.Component(a.logger, "scheduler"),
	)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("serving", "interval", a.cfg.Schedule.MonitorInterval)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return sched.Stop(stopCtx)
}

func hours(n int) time.Duration {
	return time.Duration(n) * time.Hour
}
