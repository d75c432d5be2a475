package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"reminderd/internal/reminder"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	gray  = color.New(color.FgHiBlack).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
)

type cliOptions struct {
	server  string
	timeout time.Duration
	wait    time.Duration
}

// NewRootCommand creates the remindctl command tree writing to out
func NewRootCommand(out io.Writer) *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:           "remindctl",
		Short:         "Manage reminders on a reminderd server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVar(&opts.server, "server", "http://localhost:8080", "reminderd base URL")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Per-request timeout")
	rootCmd.PersistentFlags().DurationVar(&opts.wait, "wait", 5*time.Second, "How long to retry while the server is unavailable")

	rootCmd.AddCommand(
		newAddCommand(opts),
		newListCommand(opts),
		newGetCommand(opts),
		newCancelCommand(opts),
		newSnoozeCommand(opts),
		newCleanupCommand(opts),
	)
	return rootCmd
}

func (o *cliOptions) client() *Client {
	return NewClient(o.server, o.timeout, o.wait)
}

func newAddCommand(opts *cliOptions) *cobra.Command {
	var (
		minutes, hours, days int
		at, every            string
	)

	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Schedule a reminder",
		Example: `  remindctl add "stand up" --minutes 30
  remindctl add "weekly review" --at "next week" --every weekly`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]interface{}{"text": strings.Join(args, " ")}
			for key, value := range map[string]int{"minutes": minutes, "hours": hours, "days": days} {
				if value != 0 {
					body[key] = value
				}
			}
			if at != "" {
				body["expression"] = at
			}
			if every != "" {
				body["recurrence"] = every
			}

			resp, err := opts.client().Create(cmd.Context(), body)
			if err != nil {
				return err
			}
			printOutcome(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	cmd.Flags().IntVar(&minutes, "minutes", 0, "Remind in this many minutes")
	cmd.Flags().IntVar(&hours, "hours", 0, "Remind in this many hours")
	cmd.Flags().IntVar(&days, "days", 0, "Remind in this many days")
	cmd.Flags().StringVar(&at, "at", "", `Time expression such as "tomorrow at 9am" or "in 2 hours"`)
	cmd.Flags().StringVar(&every, "every", "", `Recurrence such as "daily", "weekly" or "every 2 hours"`)
	cmd.MarkFlagsMutuallyExclusive("minutes", "hours", "days", "at")
	return cmd
}

func newListCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := opts.client().List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, bold(resp.Message))
			for _, r := range resp.Reminders {
				printReminder(out, r)
			}
			return nil
		},
	}
}

func newGetCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			resp, err := opts.client().Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if resp.Reminder != nil {
				printReminder(cmd.OutOrStdout(), resp.Reminder)
			}
			return nil
		},
	}
}

func newCancelCommand(opts *cliOptions) *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "cancel [id]",
		Short: "Cancel a reminder by id, or every active reminder whose text matches --text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				resp *response
				err  error
			)
			switch {
			case len(args) == 1 && text != "":
				return fmt.Errorf("give either an id or --text, not both")
			case len(args) == 1:
				id, parseErr := parseID(args[0])
				if parseErr != nil {
					return parseErr
				}
				resp, err = opts.client().Cancel(cmd.Context(), id)
			case text != "":
				resp, err = opts.client().CancelByText(cmd.Context(), text)
			default:
				return fmt.Errorf("give a reminder id or --text")
			}
			if err != nil {
				return err
			}
			printOutcome(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Cancel active reminders whose text contains this")
	return cmd
}

func newSnoozeCommand(opts *cliOptions) *cobra.Command {
	var minutes int

	cmd := &cobra.Command{
		Use:   "snooze <id>",
		Short: "Push a reminder back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			resp, err := opts.client().Snooze(cmd.Context(), id, minutes)
			if err != nil {
				return err
			}
			printOutcome(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	cmd.Flags().IntVar(&minutes, "minutes", 0, "Snooze length; the server default when omitted")
	return cmd
}

func newCleanupCommand(opts *cliOptions) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete triggered and cancelled reminders older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var retention *int
			if cmd.Flags().Changed("days") {
				retention = &days
			}
			resp, err := opts.client().Cleanup(cmd.Context(), retention)
			if err != nil {
				return err
			}
			printOutcome(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Retention window in days; the server default when omitted")
	return cmd
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid reminder id %q", arg)
	}
	return id, nil
}

func printOutcome(out io.Writer, resp *response) {
	if resp.Success {
		fmt.Fprintln(out, green(resp.Message))
		return
	}
	fmt.Fprintln(out, red(resp.Message))
}

func printReminder(out io.Writer, r *reminder.Reminder) {
	line := fmt.Sprintf("#%-4d %-10s %s  %s", r.ID, r.Status, r.ScheduledTime.Local().Format("Mon Jan 2 15:04"), r.Text)
	if r.Recurrence != "" {
		line += gray(" (" + r.Recurrence + ")")
	}
	fmt.Fprintln(out, line)
}
