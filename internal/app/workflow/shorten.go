package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sifan077/ushort/internal/app/model"
	"github.com/sifan077/ushort/internal/app/notify"
	"github.com/sifan077/ushort/internal/app/service"
	"github.com/sifan077/ushort/internal/app/validator"
	"github.com/sifan077/ushort/internal/infra/metrics"
	"go.uber.org/zap"
)

const (
	MsgShortened      = "URL shortened successfully!"
	MsgShortenFailed  = "Failed to shorten URL. Please try again."
	MsgCopied         = "Link copied to clipboard!"
	MsgCopyFailed     = "Failed to copy. Please copy manually."
	CopyLabel         = "Copy"
	CopiedLabel       = "Copied!"
	CopiedRevertAfter = 2 * time.Second
)

// ShortenPhase is the state of the shorten workflow.
type ShortenPhase int

const (
	ShortenIdle ShortenPhase = iota
	ShortenValidating
	ShortenSubmitting
	ShortenSucceeded
	ShortenFailed
)

func (p ShortenPhase) String() string {
	switch p {
	case ShortenIdle:
		return "idle"
	case ShortenValidating:
		return "validating"
	case ShortenSubmitting:
		return "submitting"
	case ShortenSucceeded:
		return "succeeded"
	case ShortenFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ShortenState is a snapshot of the shorten workflow. Which fields are set
// depends on Phase:
//   - Idle: Validation and Message when the last input was rejected
//   - Submitting: Submitted
//   - Succeeded: Result
//   - Failed: Message and Err
type ShortenState struct {
	Phase      ShortenPhase
	Input      string
	Submitted  string
	Validation *validator.ValidationError
	Result     *model.ShortenResult
	Message    string
	Err        error
}

// Busy reports whether the input and submit control should be disabled.
func (s ShortenState) Busy() bool {
	return s.Phase == ShortenSubmitting
}

// ShortenObserver receives every state the workflow enters, in order.
type ShortenObserver func(ShortenState)

// ShortenDeps groups dependencies required by the shorten workflow.
type ShortenDeps struct {
	Links     service.LinkService
	Notifier  notify.Notifier
	Clipboard Copier
	Clock     clock.Clock
	Logger    *zap.Logger
	Observers []ShortenObserver
}

// ShortenWorkflow drives validation, submission and copy for one form.
type ShortenWorkflow struct {
	links     service.LinkService
	notifier  notify.Notifier
	clipboard Copier
	clock     clock.Clock
	logger    *zap.Logger
	observers []ShortenObserver

	mu        sync.Mutex
	state     ShortenState
	copied    bool
	copyTimer *clock.Timer
	copyGen   uint64
}

// NewShortenWorkflow creates a workflow in the Idle phase.
func NewShortenWorkflow(deps ShortenDeps) *ShortenWorkflow {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &ShortenWorkflow{
		links:     deps.Links,
		notifier:  deps.Notifier,
		clipboard: deps.Clipboard,
		clock:     clk,
		logger:    logger.Named("shorten"),
		observers: deps.Observers,
	}
}

// State returns the current snapshot.
func (w *ShortenWorkflow) State() ShortenState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Submit validates input and, when it passes, asks the service for a short
// link. The returned error is a *validator.ValidationError, the service
// error, or ErrBusy when a submission is already running.
func (w *ShortenWorkflow) Submit(ctx context.Context, input string) (ShortenState, error) {
	w.mu.Lock()
	if w.state.Busy() {
		st := w.state
		w.mu.Unlock()
		return st, ErrBusy
	}
	validating := w.setLocked(ShortenState{Phase: ShortenValidating, Input: input})

	if verr := validator.CheckInput(input); verr != nil {
		rejected := w.setLocked(ShortenState{
			Phase:      ShortenIdle,
			Input:      input,
			Validation: verr,
			Message:    verr.Message,
		})
		w.mu.Unlock()

		metrics.WorkflowOutcomes.WithLabelValues("shorten", "rejected").Inc()
		w.emit(validating, rejected)
		return rejected, verr
	}

	submitting := w.setLocked(ShortenState{
		Phase:     ShortenSubmitting,
		Input:     input,
		Submitted: validator.Normalize(strings.TrimSpace(input)),
	})
	w.mu.Unlock()
	w.emit(validating, submitting)

	return w.dispatch(ctx, submitting)
}

func (w *ShortenWorkflow) dispatch(ctx context.Context, submitting ShortenState) (final ShortenState, err error) {
	settled := false
	defer func() {
		// Leave the busy phase even if the call panics.
		if !settled {
			w.fail(submitting, errors.New("shorten: call aborted"))
		}
	}()

	result, err := w.links.Shorten(ctx, submitting.Submitted)
	if err != nil {
		final = w.fail(submitting, err)
	} else {
		final = w.succeed(submitting, result)
	}
	settled = true
	return final, err
}

func (w *ShortenWorkflow) succeed(from ShortenState, result *model.ShortenResult) ShortenState {
	w.mu.Lock()
	st := w.setLocked(ShortenState{
		Phase:     ShortenSucceeded,
		Input:     from.Input,
		Submitted: from.Submitted,
		Result:    result,
	})
	w.mu.Unlock()

	metrics.WorkflowOutcomes.WithLabelValues("shorten", "succeeded").Inc()
	w.show(MsgShortened, model.NotificationSuccess)
	w.emit(st)
	return st
}

func (w *ShortenWorkflow) fail(from ShortenState, err error) ShortenState {
	message := MsgShortenFailed
	var opErr *model.OperationError
	if errors.As(err, &opErr) && opErr.UserMessage != "" {
		message = opErr.UserMessage
	} else {
		w.logger.Error("shorten failed without a user message", zap.Error(err))
	}

	w.mu.Lock()
	st := w.setLocked(ShortenState{
		Phase:     ShortenFailed,
		Input:     from.Input,
		Submitted: from.Submitted,
		Message:   message,
		Err:       err,
	})
	w.mu.Unlock()

	metrics.WorkflowOutcomes.WithLabelValues("shorten", "failed").Inc()
	w.show(message, model.NotificationError)
	w.emit(st)
	return st
}

// Copy puts the current short link on the clipboard. It is only possible
// after a successful submission.
func (w *ShortenWorkflow) Copy(ctx context.Context) (bool, error) {
	st := w.State()
	if st.Phase != ShortenSucceeded || st.Result == nil || st.Result.ShortURL == "" {
		return false, ErrNothingToCopy
	}

	if w.clipboard == nil || !w.clipboard.Copy(ctx, st.Result.ShortURL) {
		w.show(MsgCopyFailed, model.NotificationError)
		return false, nil
	}

	w.mu.Lock()
	if w.copyTimer != nil {
		w.copyTimer.Stop()
	}
	w.copyGen++
	gen := w.copyGen
	w.copied = true
	w.copyTimer = w.clock.AfterFunc(CopiedRevertAfter, func() { w.revertCopied(gen) })
	w.mu.Unlock()

	w.show(MsgCopied, model.NotificationSuccess)
	return true, nil
}

// Copied reports whether the transient "copied" indicator is on.
func (w *ShortenWorkflow) Copied() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.copied
}

// CopyButtonLabel is the label the copy control should show right now.
func (w *ShortenWorkflow) CopyButtonLabel() string {
	if w.Copied() {
		return CopiedLabel
	}
	return CopyLabel
}

// Close stops the copy indicator timer.
func (w *ShortenWorkflow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.copyTimer != nil {
		w.copyTimer.Stop()
		w.copyTimer = nil
	}
	w.copyGen++
	w.copied = false
}

func (w *ShortenWorkflow) revertCopied(gen uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.copyGen {
		return
	}
	w.copied = false
	w.copyTimer = nil
}

func (w *ShortenWorkflow) setLocked(st ShortenState) ShortenState {
	w.state = st
	return st
}

func (w *ShortenWorkflow) show(message string, kind model.NotificationKind) {
	if w.notifier != nil {
		w.notifier.Show(message, kind)
	}
}

func (w *ShortenWorkflow) emit(states ...ShortenState) {
	for _, st := range states {
		for _, o := range w.observers {
			o(st)
		}
	}
}
