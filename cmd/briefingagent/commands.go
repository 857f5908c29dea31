package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"BriefingAgent/internal/app"
	"BriefingAgent/internal/config"
	"BriefingAgent/internal/domain"
	"BriefingAgent/internal/logging"
	"BriefingAgent/internal/records"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "briefingagent",
		Short:         "Generate, review and deliver daily briefings",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(generateCmd())
	root.AddCommand(dispatchCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(reviewCmd())
	root.AddCommand(usersCmd())
	return root
}

// withApp loads configuration, tags the logger with a run ID and hands a
// ready application to fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.Application, logger *slog.Logger) error) error {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level).With("run_id", uuid.NewString(), "command", cmd.Name())

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return fn(ctx, a, logger)
}

func generateCmd() *cobra.Command {
	var (
		taskName string
		topicID  int
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Select input, generate a draft and stage it as Pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := domain.ParseTaskType(taskName)
			if err != nil {
				return err
			}
			if topicID < 0 {
				return fmt.Errorf("--topic must be a positive topic ID")
			}

			return withApp(cmd, func(ctx context.Context, a *app.Application, logger *slog.Logger) error {
				record, err := a.Generate(ctx, task, topicID)
				if err != nil {
					// Reported, not fatal: the next scheduled run tries again.
					logger.Error("generation failed", "task", task, "error", err)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "staged %q (%s)\n", record.Subject, record.Status)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&taskName, "task", "t", "", "Task type (morning, afternoon, evening)")
	cmd.Flags().IntVar(&topicID, "topic", 0, "Force a 1-based topic ID for the afternoon rotation")
	_ = cmd.MarkFlagRequired("task")
	return cmd
}

func dispatchCmd() *cobra.Command {
	var (
		mode     string
		taskName string
	)

	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Run one send or monitor pass over the record sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			var task domain.TaskType
			if taskName != "" {
				parsed, err := domain.ParseTaskType(taskName)
				if err != nil {
					return err
				}
				task = parsed
			}
			if mode != "send" && mode != "monitor" {
				return fmt.Errorf("unknown mode %q (want send or monitor)", mode)
			}

			return withApp(cmd, func(ctx context.Context, a *app.Application, logger *slog.Logger) error {
				if mode == "monitor" {
					report, err := a.Monitor(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "monitor: scanned %d, regenerated %d, failed %d\n",
						report.Scanned, report.Regenerated, report.Failed)
					return nil
				}

				report, err := a.Send(ctx, task)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "send: scanned %d, sent %d, failed %d\n",
					report.Scanned, report.Sent, report.Failed)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "send", "Dispatch mode (send, monitor)")
	cmd.Flags().StringVarP(&taskName, "task", "t", "", "Only send records of this task")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run monitor passes periodically until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.Application, _ *slog.Logger) error {
				return a.Serve(ctx)
			})
		},
	}
}

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "List drafts and record reviewer decisions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show every record with its row and status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.Application, _ *slog.Logger) error {
				entries, err := a.Records(ctx)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no records")
					return nil
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%-5s %-10s %-9s %-11s %s\n", "ROW", "DATE", "TASK", "STATUS", "SUBJECT")
				for _, e := range entries {
					fmt.Fprintf(out, "%-5d %-10s %-9s %-11s %s\n", e.Row, e.Record.Date, e.Record.Task, e.Record.Status, e.Record.Subject)
				}
				return nil
			})
		},
	})
	cmd.AddCommand(decisionCmd("approve", domain.StatusApproved))
	cmd.AddCommand(decisionCmd("reject", domain.StatusReject))
	return cmd
}

func decisionCmd(name string, decision domain.Status) *cobra.Command {
	var row int

	cmd := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Mark a record %s", decision),
		RunE: func(cmd *cobra.Command, args []string) error {
			if row < records.TopRow {
				return fmt.Errorf("--row must point at a record row (%d or later)", records.TopRow)
			}
			return withApp(cmd, func(ctx context.Context, a *app.Application, _ *slog.Logger) error {
				record, err := a.Review(ctx, row, decision)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "row %d %q is now %s\n", row, record.Subject, record.Status)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&row, "row", "r", 0, "Sheet row of the record (see review list)")
	_ = cmd.MarkFlagRequired("row")
	return cmd
}

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage briefing subscribers",
	}

	var (
		email  string
		name   string
		expiry string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a subscriber active until the expiry date",
		RunE: func(cmd *cobra.Command, args []string) error {
			until, err := records.ParseExpiry(expiry)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.Application, _ *slog.Logger) error {
				if err := a.AddSubscriber(ctx, email, name, until); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s until %s\n", email, until.Format(time.DateOnly))
				return nil
			})
		},
	}
	add.Flags().StringVarP(&email, "email", "e", "", "Recipient address")
	add.Flags().StringVarP(&name, "name", "n", "", "Display name")
	add.Flags().StringVar(&expiry, "expiry", "", "Last active day (YYYY-MM-DD)")
	_ = add.MarkFlagRequired("email")
	_ = add.MarkFlagRequired("expiry")

	list := &cobra.Command{
		Use:   "list",
		Short: "Show every subscriber row",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.Application, _ *slog.Logger) error {
				subs, err := a.Subscribers(ctx)
				if err != nil {
					return err
				}
				if len(subs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no subscribers")
					return nil
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%-5s %-32s %-16s %s\n", "ROW", "EMAIL", "NAME", "EXPIRY")
				for _, s := range subs {
					fmt.Fprintf(out, "%-5d %-32s %-16s %s\n", s.Row, s.Email, s.Name, s.Expiry)
				}
				return nil
			})
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}
