package clipboard

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/sifan077/ushort/internal/infra/metrics"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var (
	ErrUnsupported = errors.New("clipboard: not supported in this environment")
	ErrNotTerminal = errors.New("clipboard: output is not a terminal")
)

// Strategy is one way of putting text on the clipboard.
type Strategy interface {
	Name() string
	WriteText(ctx context.Context, text string) error
}

// Clipboard tries its strategies in order and reports whether any succeeded.
type Clipboard struct {
	strategies []Strategy
	logger     *zap.Logger
}

// New returns a clipboard using the given strategies in order.
func New(logger *zap.Logger, strategies ...Strategy) *Clipboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Clipboard{strategies: strategies, logger: logger.Named("clipboard")}
}

// Default is the system clipboard with an OSC 52 fallback on stdout.
func Default(logger *zap.Logger) *Clipboard {
	return New(logger, System{}, NewOSC52(os.Stdout))
}

// Copy writes text with the first strategy that works.
func (c *Clipboard) Copy(ctx context.Context, text string) bool {
	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return false
		}
		if err := s.WriteText(ctx, text); err != nil {
			metrics.ClipboardAttempts.WithLabelValues(s.Name(), "failure").Inc()
			c.logger.Debug("clipboard strategy failed", zap.String("strategy", s.Name()), zap.Error(err))
			continue
		}
		metrics.ClipboardAttempts.WithLabelValues(s.Name(), "success").Inc()
		return true
	}
	return false
}

// System writes through the OS clipboard (pbcopy, xclip, wl-copy, Windows API).
type System struct{}

func (System) Name() string { return "system" }

func (System) WriteText(_ context.Context, text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	return clipboard.WriteAll(text)
}

// OSC52 asks the terminal emulator to set the clipboard via an escape
// sequence. It works over SSH where no system clipboard is reachable.
type OSC52 struct {
	out        io.Writer
	isTerminal func() bool
}

// NewOSC52 writes sequences to out. Only *os.File terminals qualify.
func NewOSC52(out io.Writer) *OSC52 {
	return &OSC52{
		out: out,
		isTerminal: func() bool {
			f, ok := out.(*os.File)
			return ok && term.IsTerminal(int(f.Fd()))
		},
	}
}

func (o *OSC52) Name() string { return "osc52" }

func (o *OSC52) WriteText(_ context.Context, text string) error {
	if !o.isTerminal() {
		return ErrNotTerminal
	}
	seq := fmt.Sprintf("\x1b]52;c;%s\a", base64.StdEncoding.EncodeToString([]byte(text)))
	if _, err := io.WriteString(o.out, seq); err != nil {
		return fmt.Errorf("clipboard: osc52 write: %w", err)
	}
	return nil
}
