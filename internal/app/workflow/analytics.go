package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/sifan077/ushort/internal/app/model"
	"github.com/sifan077/ushort/internal/app/service"
	"github.com/sifan077/ushort/internal/infra/metrics"
	"go.uber.org/zap"
)

const MsgAnalyticsNotFound = "Could not find analytics for this URL."

// AnalyticsPhase is the state of the analytics workflow.
type AnalyticsPhase int

const (
	AnalyticsIdle AnalyticsPhase = iota
	AnalyticsExtracting
	AnalyticsFetching
	AnalyticsFound
	AnalyticsNotFound
)

func (p AnalyticsPhase) String() string {
	switch p {
	case AnalyticsIdle:
		return "idle"
	case AnalyticsExtracting:
		return "extracting"
	case AnalyticsFetching:
		return "fetching"
	case AnalyticsFound:
		return "found"
	case AnalyticsNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// AnalyticsState is a snapshot of the analytics workflow.
type AnalyticsState struct {
	Phase   AnalyticsPhase
	Input   string
	Code    string
	Result  *model.AnalyticsResult
	Message string
	Err     error
}

// Busy reports whether the search control should be disabled.
func (s AnalyticsState) Busy() bool {
	return s.Phase == AnalyticsFetching
}

// AnalyticsObserver receives every state the workflow enters, in order.
type AnalyticsObserver func(AnalyticsState)

// AnalyticsDeps groups dependencies required by the analytics workflow.
type AnalyticsDeps struct {
	Links     service.LinkService
	Clock     clock.Clock
	Logger    *zap.Logger
	Observers []AnalyticsObserver
}

// AnalyticsWorkflow resolves a short code or short URL to its report.
type AnalyticsWorkflow struct {
	links     service.LinkService
	clock     clock.Clock
	logger    *zap.Logger
	observers []AnalyticsObserver

	mu    sync.Mutex
	state AnalyticsState
}

// NewAnalyticsWorkflow creates a workflow in the Idle phase.
func NewAnalyticsWorkflow(deps AnalyticsDeps) *AnalyticsWorkflow {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &AnalyticsWorkflow{
		links:     deps.Links,
		clock:     clk,
		logger:    logger.Named("analytics"),
		observers: deps.Observers,
	}
}

// ExtractCode accepts a bare code or a pasted short URL and returns the
// code: the last path segment, ignoring query, fragment and trailing slashes.
// A URL with no path yields "" rather than its host.
func ExtractCode(input string) string {
	s := strings.TrimSpace(input)
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}

	hasAuthority := false
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+len("://"):]
		hasAuthority = true
	}

	segments := strings.FieldsFunc(s, func(r rune) bool { return r == '/' })
	switch {
	case hasAuthority:
		segments = segments[min(1, len(segments)):]
	case len(segments) == 1 && strings.Contains(s, "/") && strings.ContainsAny(segments[0], ".:"):
		// "ushort.link/" is a host with an empty path.
		segments = nil
	}
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}

// State returns the current snapshot.
func (w *AnalyticsWorkflow) State() AnalyticsState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Status derives the link status of the current result at the clock's now.
func (w *AnalyticsWorkflow) Status() (model.LinkStatus, bool) {
	st := w.State()
	if st.Phase != AnalyticsFound || st.Result == nil {
		return "", false
	}
	return st.Result.Status(w.clock.Now()), true
}

// Lookup fetches analytics for input. Empty input returns to Idle without a
// call. Failures are reported inline only.
func (w *AnalyticsWorkflow) Lookup(ctx context.Context, input string) (AnalyticsState, error) {
	w.mu.Lock()
	if w.state.Busy() {
		st := w.state
		w.mu.Unlock()
		return st, ErrBusy
	}
	extracting := w.setLocked(AnalyticsState{Phase: AnalyticsExtracting, Input: input})

	code := ExtractCode(input)
	if code == "" {
		idle := w.setLocked(AnalyticsState{Phase: AnalyticsIdle, Input: input})
		w.mu.Unlock()
		w.emit(extracting, idle)
		return idle, nil
	}

	fetching := w.setLocked(AnalyticsState{Phase: AnalyticsFetching, Input: input, Code: code})
	w.mu.Unlock()
	w.emit(extracting, fetching)

	return w.fetch(ctx, fetching)
}

func (w *AnalyticsWorkflow) fetch(ctx context.Context, fetching AnalyticsState) (final AnalyticsState, err error) {
	settled := false
	defer func() {
		if !settled {
			w.notFound(fetching, errors.New("analytics: call aborted"))
		}
	}()

	result, err := w.links.GetAnalytics(ctx, fetching.Code)
	if err != nil {
		final = w.notFound(fetching, err)
	} else {
		final = w.found(fetching, result)
	}
	settled = true
	return final, err
}

func (w *AnalyticsWorkflow) found(from AnalyticsState, result *model.AnalyticsResult) AnalyticsState {
	w.mu.Lock()
	st := w.setLocked(AnalyticsState{
		Phase:  AnalyticsFound,
		Input:  from.Input,
		Code:   from.Code,
		Result: result,
	})
	w.mu.Unlock()

	metrics.WorkflowOutcomes.WithLabelValues("analytics", "found").Inc()
	w.emit(st)
	return st
}

func (w *AnalyticsWorkflow) notFound(from AnalyticsState, err error) AnalyticsState {
	message := MsgAnalyticsNotFound
	var opErr *model.OperationError
	if errors.As(err, &opErr) && opErr.UserMessage != "" {
		message = opErr.UserMessage
	} else {
		w.logger.Error("lookup failed without a user message", zap.Error(err))
	}

	w.mu.Lock()
	st := w.setLocked(AnalyticsState{
		Phase:   AnalyticsNotFound,
		Input:   from.Input,
		Code:    from.Code,
		Message: message,
		Err:     err,
	})
	w.mu.Unlock()

	metrics.WorkflowOutcomes.WithLabelValues("analytics", "not_found").Inc()
	w.emit(st)
	return st
}

func (w *AnalyticsWorkflow) setLocked(st AnalyticsState) AnalyticsState {
	w.state = st
	return st
}

func (w *AnalyticsWorkflow) emit(states ...AnalyticsState) {
	for _, st := range states {
		for _, o := range w.observers {
			o(st)
		}
	}
}
