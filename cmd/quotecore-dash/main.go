// Command quotecore-dash loads the configured record store and prints the
// procurement dashboard rollup as JSON. Storage and attachment drivers are
// selected through QUOTECORE_* environment variables; a local .env file is
// honored when present.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"quotecore/internal/blob"
	"quotecore/internal/core"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("quotecore-dash", flag.ContinueOnError)
	fs.SetOutput(stderr)
	orphans := fs.Bool("orphans", false, "also list attachment keys no quote references")
	pretty := fs.Bool("pretty", true, "indent JSON output")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	// Missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(stderr, nil))
	ctx := context.Background()

	records, err := core.OpenRecordStore()
	if err != nil {
		fmt.Fprintf(stderr, "open record store: %v\n", err)
		return 1
	}
	attachments, err := blob.Open(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "open attachment store: %v\n", err)
		return 1
	}

	svc := core.NewService(records, attachments, core.WithLogger(slogAdapter{logger}))
	if err := svc.Load(ctx); err != nil {
		// The service latches into read-only mode; still report the failure.
		fmt.Fprintf(stderr, "load records: %v\n", err)
		return 1
	}

	out := struct {
		Dashboard core.DashboardSummary `json:"dashboard"`
		Orphans   []string              `json:"orphan_attachments,omitempty"`
	}{Dashboard: svc.Dashboard()}

	if *orphans {
		keys, err := svc.OrphanAttachments(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "list orphan attachments: %v\n", err)
			return 1
		}
		out.Orphans = keys
	}

	enc := json.NewEncoder(stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(stderr, "encode output: %v\n", err)
		return 1
	}
	return 0
}

// slogAdapter bridges slog to the service Logger interface.
type slogAdapter struct{ l *slog.Logger }

func (a slogAdapter) Debug(msg string, kv ...any) { a.l.Debug(msg, kv...) }
func (a slogAdapter) Info(msg string, kv ...any)  { a.l.Info(msg, kv...) }
func (a slogAdapter) Warn(msg string, kv ...any)  { a.l.Warn(msg, kv...) }
func (a slogAdapter) Error(msg string, kv ...any) { a.l.Error(msg, kv...) }
