// Package poller refreshes the store from the crawler service on a fixed
// interval and on demand.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/j-veylop/crawler-dashboard-tui/internal/logger"
	"github.com/j-veylop/crawler-dashboard-tui/internal/models"
	"github.com/j-veylop/crawler-dashboard-tui/internal/store"
)

// DefaultInterval is the poll interval used when none is configured.
const DefaultInterval = 30 * time.Second

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("poller closed")

// Fetcher is the read side of the crawler service.
type Fetcher interface {
	FetchRecords(ctx context.Context) ([]models.Record, error)
	FetchAccounts(ctx context.Context) ([]models.Account, error)
	FetchCrawlerStatus(ctx context.Context) (models.CrawlerStatus, error)
	FetchAutomationStatus(ctx context.Context) (models.AutomationStatus, error)
	FetchVersion(ctx context.Context) (models.VersionInfo, error)
	FetchStatistics(ctx context.Context) (models.Statistics, error)
	FetchKeywords(ctx context.Context) (models.KeywordStats, error)
	FetchHistory(ctx context.Context) (models.CrawlHistory, error)
}

// State is the scheduler state.
type State int

const (
	// Idle means no timer is armed and nothing is being fetched.
	Idle State = iota
	// Scheduled means the timer is armed and the next cycle is pending.
	Scheduled
	// Fetching means at least one cycle is in flight.
	Fetching
	// Cancelled is terminal, entered on Close.
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scheduled:
		return "scheduled"
	case Fetching:
		return "fetching"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// View selects which optional slices a cycle fetches.
type View int

const (
	// ViewOverview needs only the base slices.
	ViewOverview View = iota
	// ViewStatistics also needs statistics and crawl history.
	ViewStatistics
	// ViewKeywords also needs keyword stats.
	ViewKeywords
)

// Slices returns every slice a cycle must fetch for v.
func (v View) Slices() store.Set {
	switch v {
	case ViewStatistics:
		return store.BaseSet.With(store.Statistics).With(store.History)
	case ViewKeywords:
		return store.BaseSet.With(store.Keywords)
	default:
		return store.BaseSet
	}
}

func (v View) String() string {
	switch v {
	case ViewStatistics:
		return "statistics"
	case ViewKeywords:
		return "keywords"
	default:
		return "overview"
	}
}

// Outcome is the result of one cycle.
type Outcome struct {
	Err       error
	Applied   []store.Slice
	Cycle     uint64
	Requested store.Set
	Discarded bool
}

// Config holds poller settings.
type Config struct {
	Interval time.Duration
}

type flight struct {
	cancel     context.CancelFunc
	slices     store.Set
	superseded bool
}

// Poller runs fetch cycles against a Fetcher and applies them to a Store.
type Poller struct {
	fetcher    Fetcher
	store      *store.Store
	closeCtx   context.Context
	closeFn    context.CancelFunc
	inflight   map[uint64]*flight
	eventChan  chan Event
	intervalCh chan time.Duration
	loopDone   chan struct{}
	interval   time.Duration
	view       View
	fetching   int
	running    bool
	closed     bool
	mu         sync.Mutex
}

// New creates a poller. It does nothing until Start or Refresh is called.
func New(fetcher Fetcher, st *store.Store, cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		fetcher:    fetcher,
		store:      st,
		closeCtx:   ctx,
		closeFn:    cancel,
		inflight:   make(map[uint64]*flight),
		eventChan:  make(chan Event, 100),
		intervalCh: make(chan time.Duration, 1),
		interval:   cfg.Interval,
	}
}

// Events returns the event channel.
func (p *Poller) Events() <-chan Event {
	return p.eventChan
}

// State returns the current scheduler state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.closed:
		return Cancelled
	case p.fetching > 0:
		return Fetching
	case p.running:
		return Scheduled
	default:
		return Idle
	}
}

// Interval returns the current poll interval.
func (p *Poller) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// SetView changes the optional slices fetched by subsequent cycles.
func (p *Poller) SetView(v View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view = v
}

// View returns the active view.
func (p *Poller) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}

// SetInterval changes the poll interval. It takes effect on the next tick.
func (p *Poller) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	if p.interval == d {
		p.mu.Unlock()
		return
	}
	p.interval = d
	p.mu.Unlock()

	// Keep only the most recent pending change.
	select {
	case <-p.intervalCh:
	default:
	}
	select {
	case p.intervalCh <- d:
	default:
	}
	logger.Info("poll interval changed", "interval", d)
}

// Start runs one cycle immediately and then one per interval until ctx is
// done or Close is called. Calling Start twice is a no-op.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.loopDone = make(chan struct{})
	interval := p.interval
	p.mu.Unlock()

	go p.loop(ctx, interval)
	return nil
}

func (p *Poller) loop(ctx context.Context, interval time.Duration) {
	defer func() {
		p.mu.Lock()
		p.running = false
		close(p.loopDone)
		p.mu.Unlock()
	}()

	// Initial refresh
	p.runCycle(ctx, "startup")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.runCycle(ctx, "interval")
		case d := <-p.intervalCh:
			ticker.Reset(d)
		case <-ctx.Done():
			return
		case <-p.closeCtx.Done():
			return
		}
	}
}

// Refresh runs an on-demand cycle and waits for its outcome.
func (p *Poller) Refresh(ctx context.Context, reason string) Outcome {
	return p.runCycle(ctx, reason)
}

// Close stops the timer and cancels in-flight cycles. Results that arrive
// later are dropped. Close is idempotent.
func (p *Poller) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	done := p.loopDone
	p.mu.Unlock()

	p.closeFn()
	if done != nil {
		<-done
	}
	logger.Debug("poller closed")
	return nil
}

func (p *Poller) runCycle(parent context.Context, reason string) Outcome {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return Outcome{Discarded: true, Err: ErrClosed}
	}
	slices := p.view.Slices()
	cycle := p.store.NextCycle()
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(p.closeCtx, cancel)
	for id, f := range p.inflight {
		if f.slices.SubsetOf(slices) {
			f.superseded = true
			f.cancel()
			logger.Debug("cycle superseded", "cycle", id, "by", cycle)
		}
	}
	fl := &flight{cancel: cancel, slices: slices}
	p.inflight[cycle] = fl
	p.fetching++
	p.mu.Unlock()

	start := time.Now()
	p.sendEvent(Event{Type: EventCycleStarted, Cycle: cycle, Slices: slices, Reason: reason})

	partial, err := p.fetch(ctx, slices)

	stop()
	cancel()
	p.mu.Lock()
	delete(p.inflight, cycle)
	p.fetching--
	closed, superseded := p.closed, fl.superseded
	p.mu.Unlock()

	out := Outcome{Cycle: cycle, Requested: slices}
	elapsed := time.Since(start)

	switch {
	case closed:
		out.Discarded = true
		out.Err = ErrClosed
		return out
	case err != nil && superseded:
		out.Discarded = true
		out.Err = err
		p.sendEvent(Event{Type: EventCycleDiscarded, Cycle: cycle, Slices: slices, Reason: reason, Duration: elapsed})
		return out
	case err != nil:
		out.Err = err
		logger.Warn("poll cycle failed", "cycle", cycle, "reason", reason, "error", err)
		p.sendEvent(Event{Type: EventCycleFailed, Cycle: cycle, Slices: slices, Reason: reason, Err: err, Duration: elapsed})
		return out
	}

	out.Applied = p.store.Replace(cycle, partial)
	if len(out.Applied) == 0 {
		out.Discarded = true
		logger.Debug("poll cycle resolved after a newer one", "cycle", cycle)
		p.sendEvent(Event{Type: EventCycleDiscarded, Cycle: cycle, Slices: slices, Reason: reason, Duration: elapsed})
		return out
	}
	logger.Debug("poll cycle applied", "cycle", cycle, "reason", reason, "slices", slices.String(), "duration", elapsed)
	p.sendEvent(Event{
		Type:     EventCycleApplied,
		Cycle:    cycle,
		Slices:   slices,
		Applied:  store.NewSet(out.Applied...),
		Reason:   reason,
		Duration: elapsed,
	})
	return out
}

// fetch runs every fetch of one cycle concurrently. The first failure
// cancels the rest and fails the whole cycle.
func (p *Poller) fetch(ctx context.Context, slices store.Set) (store.Partial, error) {
	var (
		partial    store.Partial
		records    []models.Record
		accounts   []models.Account
		status     models.CrawlerStatus
		automation models.AutomationStatus
		version    models.VersionInfo
		stats      models.Statistics
		kw         models.KeywordStats
		history    models.CrawlHistory
	)

	g, gctx := errgroup.WithContext(ctx)
	if slices.Has(store.Records) {
		g.Go(func() (err error) {
			records, err = p.fetcher.FetchRecords(gctx)
			return err
		})
		partial.Records = &records
	}
	if slices.Has(store.Accounts) {
		g.Go(func() (err error) {
			accounts, err = p.fetcher.FetchAccounts(gctx)
			return err
		})
		partial.Accounts = &accounts
	}
	if slices.Has(store.CrawlerStatus) {
		g.Go(func() (err error) {
			status, err = p.fetcher.FetchCrawlerStatus(gctx)
			return err
		})
		partial.CrawlerStatus = &status
	}
	if slices.Has(store.Automation) {
		g.Go(func() (err error) {
			automation, err = p.fetcher.FetchAutomationStatus(gctx)
			return err
		})
		partial.Automation = &automation
	}
	if slices.Has(store.Version) {
		g.Go(func() (err error) {
			version, err = p.fetcher.FetchVersion(gctx)
			return err
		})
		partial.Version = &version
	}
	if slices.Has(store.Statistics) {
		g.Go(func() (err error) {
			stats, err = p.fetcher.FetchStatistics(gctx)
			return err
		})
		partial.Statistics = &stats
	}
	if slices.Has(store.Keywords) {
		g.Go(func() (err error) {
			kw, err = p.fetcher.FetchKeywords(gctx)
			return err
		})
		partial.Keywords = &kw
	}
	if slices.Has(store.History) {
		g.Go(func() (err error) {
			history, err = p.fetcher.FetchHistory(gctx)
			return err
		})
		partial.History = &history
	}

	if err := g.Wait(); err != nil {
		return store.Partial{}, err
	}
	return partial, nil
}

// sendEvent sends an event to the event channel non-blocking.
func (p *Poller) sendEvent(event Event) {
	select {
	case p.eventChan <- event:
	default:
		// Channel full, drop oldest
		select {
		case <-p.eventChan:
		default:
		}
		select {
		case p.eventChan <- event:
		default:
		}
	}
}
