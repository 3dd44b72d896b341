package worker

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/catalog"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/clock"
	reportdomain "github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/report/domain"
	signupdomain "github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/signup/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type fakeReports struct {
	windows   []reportdomain.Window
	consumers []signupdomain.Signup
	err       error
}

func (f *fakeReports) UniqueSignups(_ context.Context, _ reportdomain.Window) ([]signupdomain.Signup, error) {
	return nil, nil
}

func (f *fakeReports) PreviousSignups(_ context.Context, _ signupdomain.Signup) ([]signupdomain.Signup, error) {
	return nil, nil
}

func (f *fakeReports) CountSignups(_ context.Context, window reportdomain.Window) (*reportdomain.CountResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.windows = append(f.windows, window)
	return &reportdomain.CountResult{Total: 3, APIs: map[string]int{"facilities": 2}}, nil
}

func (f *fakeReports) ConsumerView(_ context.Context) ([]signupdomain.Signup, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.consumers, nil
}

type fakeSender struct {
	titles []string
	texts  []string
	err    error
}

func (f *fakeSender) SendMessage(_ context.Context, text, title string) error {
	if f.err != nil {
		return f.err
	}
	f.titles = append(f.titles, title)
	f.texts = append(f.texts, text)
	return nil
}

func newTestWorker(reports reportdomain.Service, sender Sender, now time.Time) *Worker {
	return &Worker{
		log:     zap.NewNop(),
		reports: reports,
		catalog: catalog.Default(),
		sender:  sender,
		clock:   clock.Fixed(now),
		cfg:     Config{Interval: time.Hour, Lookback: 24 * time.Hour}.withDefaults(),
	}
}

func TestRunOnceReportsWindowAndAllTime(t *testing.T) {
	now := time.Date(2020, 3, 10, 12, 0, 0, 0, time.UTC)
	reports := &fakeReports{consumers: []signupdomain.Signup{{Email: "frodo@theshire.com"}}}
	sender := &fakeSender{}
	w := newTestWorker(reports, sender, now)

	if err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	if len(reports.windows) != 2 {
		t.Fatalf("expected window and all-time queries, got %d", len(reports.windows))
	}
	first := reports.windows[0]
	if first.Start == nil || !first.Start.Equal(now.Add(-24*time.Hour)) {
		t.Fatalf("expected lookback window start, got %v", first.Start)
	}
	if reports.windows[1].Start != nil || reports.windows[1].End != nil {
		t.Fatalf("expected unbounded all-time window, got %+v", reports.windows[1])
	}

	if len(sender.texts) != 1 || !strings.Contains(sender.texts[0], "VA Facilities API") {
		t.Fatalf("expected formatted summary, got %v", sender.texts)
	}
	if !strings.Contains(sender.texts[0], "*Consumers:* 1 all time") {
		t.Fatalf("expected merged consumer total in summary, got %q", sender.texts[0])
	}
	if !w.lastRun.Equal(now) {
		t.Fatalf("expected window to advance, got %v", w.lastRun)
	}
}

func TestRunOnceFailureDoesNotAdvanceWindow(t *testing.T) {
	now := time.Date(2020, 3, 10, 12, 0, 0, 0, time.UTC)
	reports := &fakeReports{err: errors.New("scan failed")}
	w := newTestWorker(reports, &fakeSender{}, now)

	if err := w.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if !w.lastRun.IsZero() {
		t.Fatalf("failed run must not advance the window, got %v", w.lastRun)
	}
}

func TestRunOnceSendFailure(t *testing.T) {
	now := time.Date(2020, 3, 10, 12, 0, 0, 0, time.UTC)
	sender := &fakeSender{err: errors.New("webhook down")}
	w := newTestWorker(&fakeReports{}, sender, now)

	if err := w.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected send failure to surface")
	}
	if !w.lastRun.IsZero() {
		t.Fatalf("failed send must not advance the window")
	}
}

// countingReports and countingSender are safe for use from the worker
// goroutine in the lifecycle test.
type countingReports struct{}

func (countingReports) UniqueSignups(_ context.Context, _ reportdomain.Window) ([]signupdomain.Signup, error) {
	return nil, nil
}

func (countingReports) PreviousSignups(_ context.Context, _ signupdomain.Signup) ([]signupdomain.Signup, error) {
	return nil, nil
}

func (countingReports) CountSignups(_ context.Context, _ reportdomain.Window) (*reportdomain.CountResult, error) {
	return &reportdomain.CountResult{APIs: map[string]int{}}, nil
}

func (countingReports) ConsumerView(_ context.Context) ([]signupdomain.Signup, error) {
	return nil, nil
}

type countingSender struct {
	sent atomic.Int64
}

func (c *countingSender) SendMessage(_ context.Context, _, _ string) error {
	c.sent.Add(1)
	return nil
}

type recordedLifecycle struct {
	hooks []fx.Hook
}

func (l *recordedLifecycle) Append(hook fx.Hook) { l.hooks = append(l.hooks, hook) }

func TestRunWorkerOutlivesStartContext(t *testing.T) {
	sender := &countingSender{}
	w := &Worker{
		log:     zap.NewNop(),
		reports: countingReports{},
		catalog: catalog.Default(),
		sender:  sender,
		clock:   clock.SystemClock{},
		cfg:     Config{Interval: 10 * time.Millisecond, Lookback: time.Hour},
	}

	lc := &recordedLifecycle{}
	runWorker(lc, w)
	if len(lc.hooks) != 1 {
		t.Fatalf("hooks registered = %d, want 1", len(lc.hooks))
	}

	startCtx, cancelStart := context.WithCancel(context.Background())
	if err := lc.hooks[0].OnStart(startCtx); err != nil {
		t.Fatalf("on start: %v", err)
	}
	// The start context ends when the app start deadline elapses; the loop
	// must keep ticking regardless.
	cancelStart()

	deadline := time.After(2 * time.Second)
	for sender.sent.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("no report posted after the start context ended")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	if err := lc.hooks[0].OnStop(context.Background()); err != nil {
		t.Fatalf("on stop: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	settled := sender.sent.Load()
	time.Sleep(50 * time.Millisecond)
	if got := sender.sent.Load(); got != settled {
		t.Fatalf("worker still posting after stop: %d -> %d", settled, got)
	}
}
