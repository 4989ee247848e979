package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sifan077/ushort/internal/app/model"
	"github.com/sifan077/ushort/internal/app/notify"
	"github.com/stretchr/testify/mock"
)

type MockLinkService struct {
	mock.Mock
}

func (m *MockLinkService) Shorten(ctx context.Context, originalURL string) (*model.ShortenResult, error) {
	args := m.Called(ctx, originalURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShortenResult), args.Error(1)
}

func (m *MockLinkService) GetAnalytics(ctx context.Context, code string) (*model.AnalyticsResult, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AnalyticsResult), args.Error(1)
}

type fakeCopier struct {
	ok     bool
	copied []string
}

func (f *fakeCopier) Copy(_ context.Context, text string) bool {
	f.copied = append(f.copied, text)
	return f.ok
}

// recordedNotifications collects everything the scheduler materializes.
type recordedNotifications struct {
	mu    sync.Mutex
	shown []model.Notification
}

func (r *recordedNotifications) listener(n *model.Notification) {
	if n == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = append(r.shown, *n)
}

func (r *recordedNotifications) ofKind(kind model.NotificationKind) []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Notification
	for _, n := range r.shown {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// Mock clock callbacks run on their own goroutine.
const fireWait = time.Second

func newMockClock(now time.Time) *clock.Mock {
	clk := clock.NewMock()
	clk.Set(now)
	return clk
}

func newHarness() (*clock.Mock, *notify.Scheduler, *recordedNotifications) {
	clk := newMockClock(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))
	rec := &recordedNotifications{}
	return clk, notify.NewScheduler(clk, rec.listener), rec
}

func statusPtr(code int) *int {
	return &code
}
