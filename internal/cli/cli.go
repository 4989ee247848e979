// Package cli implements the ushort command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sifan077/ushort/config"
	"github.com/sifan077/ushort/internal/app/model"
	appserver "github.com/sifan077/ushort/internal/app/server"
	"github.com/sifan077/ushort/internal/app/service"
	"github.com/sifan077/ushort/internal/app/validator"
	"github.com/sifan077/ushort/internal/app/workflow"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

const shutdownTimeout = 5 * time.Second

const usage = `Usage: ushort <command> [flags]

Commands:
  shorten <url> [--copy]          create a short link
  analytics <code|short-url>      show click analytics for a link
  history [--limit N]             list links created from this machine
  console                         serve the local web console
  events                          follow link events published over NATS
`

// Env is what Run needs from the process.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer
	Config *config.Config
	Logger *zap.Logger

	// Clipboard overrides the system clipboard when set.
	Clipboard workflow.Copier
	// Clock overrides the wall clock when set.
	Clock clock.Clock
}

// Run executes the command in args and returns the process exit code.
func Run(ctx context.Context, args []string, env Env) int {
	if env.Logger == nil {
		env.Logger = zap.NewNop()
	}
	if len(args) == 0 {
		fmt.Fprint(env.Stderr, usage)
		return ExitUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "shorten", "analytics", "history", "console", "events":
	case "help", "-h", "--help":
		fmt.Fprint(env.Stdout, usage)
		return ExitOK
	default:
		fmt.Fprintf(env.Stderr, "unknown command %q\n\n%s", cmd, usage)
		return ExitUsage
	}

	rt := newRuntime(ctx, env)
	defer rt.Close()

	switch cmd {
	case "shorten":
		return rt.runShorten(ctx, rest)
	case "analytics":
		return rt.runAnalytics(ctx, rest)
	case "history":
		return rt.runHistory(ctx, rest)
	case "console":
		return rt.runConsole(ctx, rest)
	default:
		return rt.runEvents(ctx, rest)
	}
}

func (rt *runtime) flagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(rt.env.Stderr)
	return fs
}

func (rt *runtime) runShorten(ctx context.Context, args []string) int {
	fs := rt.flagSet("shorten")
	copyLink := fs.BoolP("copy", "c", false, "copy the short link to the clipboard")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	input := strings.Join(fs.Args(), " ")

	if verr := validator.CheckInput(input); verr == nil && rt.history.Enabled() {
		normalized := validator.Normalize(strings.TrimSpace(input))
		if prev, err := rt.history.Lookup(ctx, normalized); err == nil {
			fmt.Fprintf(rt.env.Stderr, "Previously shortened as %s\n", prev.ShortURL)
		}
	}

	st, err := rt.shorten.Submit(ctx, input)
	var verr *validator.ValidationError
	switch {
	case errors.As(err, &verr):
		fmt.Fprintln(rt.env.Stderr, verr.Message)
		return ExitFailure
	case err != nil:
		// The failure notification has already been printed.
		rt.env.Logger.Debug("shorten failed", zap.Error(err))
		return ExitFailure
	}

	fmt.Fprintln(rt.env.Stdout, st.Result.ShortURL)

	if *copyLink {
		if ok, _ := rt.shorten.Copy(ctx); !ok {
			return ExitFailure
		}
	}
	return ExitOK
}

func (rt *runtime) runAnalytics(ctx context.Context, args []string) int {
	fs := rt.flagSet("analytics")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(rt.env.Stderr, "analytics needs exactly one short code or short URL")
		return ExitUsage
	}

	st, _ := rt.analytics.Lookup(ctx, fs.Arg(0))
	switch st.Phase {
	case workflow.AnalyticsIdle:
		fmt.Fprintln(rt.env.Stderr, "analytics needs a short code or short URL")
		return ExitUsage
	case workflow.AnalyticsNotFound:
		fmt.Fprintln(rt.env.Stderr, st.Message)
		return ExitFailure
	}

	status, _ := rt.analytics.Status()
	r := st.Result

	expires := "Never"
	if r.ExpiresAt != nil && !r.ExpiresAt.IsZero() {
		expires = r.ExpiresAt.Local().Format(time.DateOnly)
	}
	created := "Unknown"
	if !r.CreatedAt.IsZero() {
		created = r.CreatedAt.Local().Format(time.DateOnly)
	}

	tw := tabwriter.NewWriter(rt.env.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Short URL\t%s\n", r.ShortURL)
	fmt.Fprintf(tw, "Original URL\t%s\n", r.OriginalURL)
	fmt.Fprintf(tw, "Clicks\t%d\n", r.ClickCount)
	fmt.Fprintf(tw, "Status\t%s\n", status)
	fmt.Fprintf(tw, "Created\t%s\n", created)
	fmt.Fprintf(tw, "Expires\t%s\n", expires)
	_ = tw.Flush()
	return ExitOK
}

func (rt *runtime) runHistory(ctx context.Context, args []string) int {
	fs := rt.flagSet("history")
	limit := fs.IntP("limit", "n", 0, "number of entries to show (default: history.limit)")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	entries, err := rt.history.Recent(ctx, *limit)
	if errors.Is(err, service.ErrHistoryDisabled) {
		fmt.Fprintln(rt.env.Stderr, "History is disabled. Set history.driver to sqlite, postgres or redis.")
		return ExitFailure
	}
	if err != nil {
		fmt.Fprintf(rt.env.Stderr, "Failed to read history: %v\n", err)
		return ExitFailure
	}

	tw := tabwriter.NewWriter(rt.env.Stdout, 0, 4, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.CreatedAt.Local().Format(time.DateTime), e.ShortURL, e.OriginalURL)
	}
	_ = tw.Flush()
	return ExitOK
}

func (rt *runtime) runConsole(ctx context.Context, args []string) int {
	fs := rt.flagSet("console")
	addr := fs.String("addr", rt.env.Config.Console.Addr, "listen address")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	log := rt.env.Logger

	server := appserver.New(appserver.Dependencies{
		Logger:        log,
		Shorten:       rt.shorten,
		Analytics:     rt.analytics,
		Notifications: rt.notifications,
		History:       rt.history,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen(*addr)
	}()
	fmt.Fprintf(rt.env.Stderr, "Console listening on http://%s\n", *addr)

	select {
	case err := <-errCh:
		log.Error("Console server exited", zap.Error(err))
		return ExitFailure
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to shut down console", zap.Error(err))
	}
	return ExitOK
}

func (rt *runtime) runEvents(ctx context.Context, args []string) int {
	fs := rt.flagSet("events")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if rt.natsConn == nil {
		fmt.Fprintln(rt.env.Stderr, "NATS is not configured. Set nats.host to follow link events.")
		return ExitFailure
	}

	consumer := service.NewLinkEventConsumer(rt.natsConn, rt.env.Logger)
	err := consumer.Follow(ctx, func(e model.LinkEvent) {
		fmt.Fprintf(rt.env.Stdout, "%s\t%s\t%s\n", e.Timestamp.Local().Format(time.DateTime), e.Type, eventSubject(e))
	})
	if err != nil {
		fmt.Fprintln(rt.env.Stderr, err)
		return ExitFailure
	}
	return ExitOK
}

func eventSubject(e model.LinkEvent) string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s %s", firstNonEmpty(e.Code, e.OriginalURL), e.Message)
	case e.Status != "":
		return fmt.Sprintf("%s %s", e.ShortURL, e.Status)
	default:
		return fmt.Sprintf("%s -> %s", e.ShortURL, e.OriginalURL)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
