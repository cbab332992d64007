package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/timmy/analystai/internal/client"
)

type Options struct {
	Server       string
	APIKey       string
	Timeout      time.Duration
	PollInterval time.Duration
}

func (o *Options) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&o.Server, "server", "s", envOr("ANALYSTAI_URL", "http://localhost:8000"), "extraction API base URL")
	flagSet.StringVarP(&o.APIKey, "api-key", "k", envOr("ANALYSTAI_API_KEY", "demo-key"), "bearer token sent with every request")
	flagSet.DurationVar(&o.Timeout, "timeout", 30*time.Second, "per-request timeout")
	flagSet.DurationVar(&o.PollInterval, "poll", time.Second, "status poll interval for run")
}

func (o *Options) client() *client.Client {
	return client.New(&client.Config{
		BaseURL:      o.Server,
		APIKey:       o.APIKey,
		Timeout:      o.Timeout,
		PollInterval: o.PollInterval,
	})
}

func NewSubmitCommand(opts *Options) *cobra.Command {
	var options string
	cmd := &cobra.Command{
		Use:   "submit <fileId>",
		Short: "start an extraction and print the task id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.client().Submit(cmd.Context(), args[0], options)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&options, "options", "o", "{}", "extraction options as a JSON object")
	return cmd
}

func NewStatusCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status <taskId>",
		Short: "print the current state of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := opts.client().Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), task)
		},
	}
}

func NewDownloadCommand(opts *Options) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "download <taskId>",
		Short: "download the result of a completed task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := opts.client().Download(cmd.Context(), args[0], format)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, body)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "export format")
	cmd.Flags().StringVar(&output, "out", "", "write to file instead of stdout")
	return cmd
}

// NewRunCommand submits, waits for the task to finish and downloads the result.
func NewRunCommand(opts *Options) *cobra.Command {
	var options, output string
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "run <fileId>",
		Short: "submit, wait for completion and download",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, wait)
			defer cancel()

			c := opts.client()
			res, err := c.Submit(ctx, args[0], options)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "submitted %s, waiting...\n", res.ID)

			if _, err := c.Wait(ctx, res.ID); err != nil {
				return fmt.Errorf("task %s: %w", res.ID, err)
			}

			body, err := c.Download(ctx, res.ID, "json")
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, body)
		},
	}
	cmd.Flags().StringVarP(&options, "options", "o", "{}", "extraction options as a JSON object")
	cmd.Flags().StringVar(&output, "out", "", "write to file instead of stdout")
	cmd.Flags().DurationVar(&wait, "wait", 5*time.Minute, "give up after this long")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeOutput(stdout io.Writer, path string, body []byte) error {
	if path == "" {
		_, err := stdout.Write(append(body, '\n'))
		return err
	}
	return os.WriteFile(path, body, 0o644)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
