package records

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"BriefingAgent/internal/domain"
	"BriefingAgent/internal/ports"
)

const (
	userEmailColumn  = 1
	userExpiryColumn = 4
	expiryLayout     = "2006-1-2"
)

// Subscribers reads the users sheet: [email, _, _, expiry_date].
type Subscribers struct {
	rows   ports.RowStore
	sheet  string
	logger *slog.Logger
}

// NewSubscribers binds the users sheet of the row store.
func NewSubscribers(rows ports.RowStore, sheet string, logger *slog.Logger) *Subscribers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Subscribers{rows: rows, sheet: sheet, logger: logger}
}

// Active returns the emails whose expiry date is today or later. Rows
// without an email, without an expiry, or with an unparsable date are
// skipped.
func (s *Subscribers) Active(ctx context.Context, today time.Time) ([]string, error) {
	rows, err := s.rows.ReadAll(ctx, s.sheet)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", s.sheet, domain.ErrTransport, err)
	}

	todayDate := dateOnly(today)
	var active []string
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) < userExpiryColumn {
			continue
		}

		email := strings.TrimSpace(row[userEmailColumn-1])
		rawExpiry := strings.TrimSpace(row[userExpiryColumn-1])
		if email == "" || rawExpiry == "" {
			continue
		}

		expiry, err := ParseExpiry(rawExpiry)
		if err != nil {
			s.logger.Warn("subscriber skipped", "row", i+1, "expiry", rawExpiry, "error", err)
			continue
		}
		if expiry.Before(todayDate) {
			s.logger.Debug("subscription expired", "email", email, "expiry", expiry.Format(time.DateOnly))
			continue
		}
		active = append(active, email)
	}

	s.logger.Info("active subscribers resolved", "count", len(active))
	return active, nil
}

// UsersHeader is written to an empty users sheet.
var UsersHeader = []string{"Email", "Name", "Plan", "Expiry_Date"}

// Subscriber is one row of the users sheet.
type Subscriber struct {
	Row    int
	Email  string
	Name   string
	Expiry string
}

// Add appends a subscriber below the existing rows, writing the header first
// when the sheet is empty.
func (s *Subscribers) Add(ctx context.Context, email, name string, expiry time.Time) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("add subscriber: empty email")
	}

	rows, err := s.rows.ReadAll(ctx, s.sheet)
	if err != nil {
		return fmt.Errorf("read %s: %w: %w", s.sheet, domain.ErrTransport, err)
	}
	if len(rows) == 0 {
		if err := s.rows.InsertRow(ctx, s.sheet, UsersHeader, 1); err != nil {
			return fmt.Errorf("write %s header: %w: %w", s.sheet, domain.ErrTransport, err)
		}
		rows = append(rows, UsersHeader)
	}

	values := []string{email, strings.TrimSpace(name), "", expiry.Format(time.DateOnly)}
	if err := s.rows.InsertRow(ctx, s.sheet, values, len(rows)+1); err != nil {
		return fmt.Errorf("insert %s row: %w: %w", s.sheet, domain.ErrTransport, err)
	}
	s.logger.Info("subscriber added", "email", email, "expiry", values[userExpiryColumn-1])
	return nil
}

// List returns every subscriber row with an email, expired or not.
func (s *Subscribers) List(ctx context.Context) ([]Subscriber, error) {
	rows, err := s.rows.ReadAll(ctx, s.sheet)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", s.sheet, domain.ErrTransport, err)
	}

	var out []Subscriber
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 || strings.TrimSpace(row[userEmailColumn-1]) == "" {
			continue
		}
		sub := Subscriber{Row: i + 1, Email: strings.TrimSpace(row[userEmailColumn-1])}
		if len(row) > 1 {
			sub.Name = strings.TrimSpace(row[1])
		}
		if len(row) >= userExpiryColumn {
			sub.Expiry = strings.TrimSpace(row[userExpiryColumn-1])
		}
		out = append(out, sub)
	}
	return out, nil
}

// ParseExpiry accepts 2026-02-18, 2026/2/18 and similar forms.
func ParseExpiry(value string) (time.Time, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(value), "/", "-")
	parsed, err := time.Parse(expiryLayout, normalized)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse expiry %q: %w", value, err)
	}
	return parsed, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
