package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"BriefingAgent/internal/domain"
	"BriefingAgent/internal/ports"
	"BriefingAgent/internal/records"
	"BriefingAgent/internal/selector"
)

// Regenerator produces a fresh Pending record for a task.
type Regenerator interface {
	Generate(ctx context.Context, task domain.TaskType, opts selector.Options) (domain.ContentRecord, error)
}

// SubscriberSource lists the recipients active on a given day.
type SubscriberSource interface {
	Active(ctx context.Context, today time.Time) ([]string, error)
}

// Report summarizes one dispatcher pass.
type Report struct {
	Scanned     int
	Sent        int
	Regenerated int
	Failed      int
	Skipped     int
}

// DispatcherDeps wires the state machine driver.
type DispatcherDeps struct {
	Records     *records.Store
	Mailer      ports.Mailer
	Regenerator Regenerator
	Logger      *slog.Logger
}

// Dispatcher drives records through Pending/Approved -> Sent and
// Reject -> Regenerated. Every pass is one full scan of the record store.
type Dispatcher struct {
	records     *records.Store
	mailer      ports.Mailer
	regenerator Regenerator
	logger      *slog.Logger
}

// NewDispatcher constructs the dispatcher.
func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	d := &Dispatcher{
		records:     deps.Records,
		mailer:      deps.Mailer,
		regenerator: deps.Regenerator,
		logger:      deps.Logger,
	}
	if d.logger == nil {
		d.logger = slog.New(slog.DiscardHandler)
	}
	return d
}

// Send delivers every send-eligible record matching task (all tasks when
// task is empty) and marks it Sent. Failed sends keep their status and are
// retried by the next pass. An empty recipient list skips the whole pass.
func (d *Dispatcher) Send(ctx context.Context, task domain.TaskType, recipients []string) (Report, error) {
	var report Report
	if len(recipients) == 0 {
		d.logger.Warn("no recipients, send pass skipped")
		return report, nil
	}
	if d.mailer == nil {
		return report, fmt.Errorf("send pass: mailer not configured")
	}

	entries, err := d.records.Scan(ctx)
	if err != nil {
		return report, fmt.Errorf("scan records: %w", err)
	}

	for _, entry := range entries {
		report.Scanned++
		rec := entry.Record
		if !rec.Status.SendEligible() || (task != "" && rec.Task != task) {
			continue
		}
		logger := d.logger.With("row", entry.Row, "task", rec.Task, "subject", rec.Subject)

		still, err := d.records.Holds(ctx, entry.Row, rec.Status)
		if err != nil {
			report.Failed++
			logger.Error("status check failed", "error", err)
			continue
		}
		if !still {
			report.Skipped++
			logger.Warn("status changed since scan, not sending")
			continue
		}

		if err := d.mailer.Send(ctx, rec.Subject, rec.Body, recipients); err != nil {
			report.Failed++
			logger.Error("send failed, will retry next pass", "error", err)
			continue
		}

		if err := d.records.Transition(ctx, entry.Row, rec.Status, domain.StatusSent); err != nil {
			report.Failed++
			logger.Error("sent but status not updated", "error", err)
			continue
		}
		report.Sent++
		logger.Info("record sent", "recipients", len(recipients))
	}

	d.logger.Info("send pass finished", "scanned", report.Scanned, "sent", report.Sent, "failed", report.Failed, "skipped", report.Skipped)
	return report, nil
}

// Monitor regenerates rejected records. Each Reject row is marked
// Regenerated before regeneration starts, and the mark is kept when
// regeneration fails: a missed draft beats a reject loop. All rows are
// marked before any new record is appended, since appends shift rows.
func (d *Dispatcher) Monitor(ctx context.Context) (Report, error) {
	var report Report

	entries, err := d.records.Scan(ctx)
	if err != nil {
		return report, fmt.Errorf("scan records: %w", err)
	}

	var claimed []domain.TaskType
	for _, entry := range entries {
		report.Scanned++
		rec := entry.Record
		if rec.Status != domain.StatusReject {
			continue
		}
		logger := d.logger.With("row", entry.Row, "task", rec.Task)

		if err := d.records.Transition(ctx, entry.Row, domain.StatusReject, domain.StatusRegenerated); err != nil {
			if errors.Is(err, records.ErrStatusChanged) {
				report.Skipped++
				logger.Warn("status changed since scan, not regenerating")
				continue
			}
			report.Failed++
			logger.Error("mark regenerated failed", "error", err)
			continue
		}
		logger.Info("reject marked regenerated")
		claimed = append(claimed, rec.Task)
	}

	for _, task := range claimed {
		if d.regenerator == nil {
			report.Failed++
			d.logger.Error("regeneration not configured", "task", task)
			continue
		}
		record, err := d.regenerator.Generate(ctx, task, selector.Options{})
		if err != nil {
			report.Failed++
			d.logger.Error("regeneration failed, trigger it manually", "task", task, "error", err)
			continue
		}
		report.Regenerated++
		d.logger.Info("regenerated", "task", task, "subject", record.Subject)
	}

	d.logger.Info("monitor pass finished", "scanned", report.Scanned, "regenerated", report.Regenerated, "failed", report.Failed)
	return report, nil
}

// ResolveRecipients prefers active subscribers and falls back to the
// configured list when none are available.
func ResolveRecipients(ctx context.Context, source SubscriberSource, fallback []string, today time.Time, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if source != nil {
		active, err := source.Active(ctx, today)
		if err != nil {
			logger.Warn("subscribers unavailable, using configured recipients", "error", err)
		} else if len(active) > 0 {
			return active
		}
	}
	return fallback
}
