// Command moodctl runs a single mood query through the pipeline without the
// HTTP server and prints the response as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/moodmirror/moodmirror/internal/bootstrap"
	"github.com/moodmirror/moodmirror/internal/domain/mood"
	"github.com/moodmirror/moodmirror/internal/infra/config"
	apperrors "github.com/moodmirror/moodmirror/pkg/errors"
	"github.com/moodmirror/moodmirror/pkg/logger"
	"github.com/moodmirror/moodmirror/pkg/metrics"
)

const (
	exitOK = iota
	exitUsage
	exitInvalidInput
	exitDisabled
	exitFailure
)

type options struct {
	Text        string `long:"text" short:"t" env:"MOODCTL_TEXT" description:"How you feel, in your own words"`
	Intent      string `long:"intent" short:"i" env:"MOODCTL_INTENT" default:"Reflect" description:"One of Reflect, Lift, Calm, Boost"`
	Session     string `long:"session" env:"MOODCTL_SESSION" description:"Session id used to supersede earlier queries"`
	ListIntents bool   `long:"list-intents" description:"Print the available intents and exit"`
	Pretty      bool   `long:"pretty" description:"Indent the JSON output"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return exitFailure
	}
	log := logger.NewWithWriter(stderr)

	generator, err := bootstrap.ProvideGenerator(cfg, log)
	if err != nil {
		fmt.Fprintf(stderr, "build generator: %v\n", err)
		return exitFailure
	}
	store, cleanup := bootstrap.ProvideFeedStore(cfg, log)
	defer cleanup()
	svc := mood.NewService(bootstrap.ProvideMoodConfig(cfg), generator, store, metrics.NewFeedCounters(), log)

	if opts.ListIntents {
		return writeJSON(stdout, stderr, svc.Intents(), opts.Pretty)
	}

	resp, err := svc.SubmitMood(ctx, mood.Request{Text: opts.Text, Intent: opts.Intent, SessionID: opts.Session})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitCode(err)
	}
	return writeJSON(stdout, stderr, resp, opts.Pretty)
}

func parseOptions(args []string) (options, error) {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "--text \"...\" [--intent Lift] [--session id] | --list-intents"
	if _, err := parser.ParseArgs(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func exitCode(err error) int {
	switch apperrors.CodeOf(err) {
	case apperrors.CodeInvalidInput:
		return exitInvalidInput
	case apperrors.CodeSubmissionDisabled:
		return exitDisabled
	default:
		return exitFailure
	}
}

func writeJSON(stdout, stderr io.Writer, v any, pretty bool) int {
	enc := json.NewEncoder(stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(stderr, "encode output: %v\n", err)
		return exitFailure
	}
	return exitOK
}
