package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"chatapp-client/internal/hub"
	"chatapp-client/internal/metrics"

	"go.uber.org/zap"
)

const DefaultInterval = 3 * time.Second

// ErrAbandoned is returned by a pass whose conversation stopped being the
// active one before the result arrived.
var ErrAbandoned = errors.New("conversation is no longer active")

type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type timeTicker struct {
	*time.Ticker
}

func (t timeTicker) Chan() <-chan time.Time {
	return t.C
}

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

type session struct {
	target Target
	ctx    context.Context
	cancel context.CancelFunc

	// holds a token while a pass is in flight
	slot chan struct{}

	view    View
	hasView bool
	version uint64
}

// Synchronizer keeps the view of the one displayed conversation current by
// refetching it on an interval. Switching conversations abandons the
// previous one; a late result for it is discarded.
type Synchronizer struct {
	fetcher  Fetcher
	interval time.Duration
	hub      *hub.Hub
	eventKey string
	sugar    *zap.SugaredLogger

	newTicker func(time.Duration) Ticker
	now       func() time.Time

	mutex  sync.Mutex
	active *session
	passes sync.WaitGroup
}

// New returns a Synchronizer. events may be nil.
func New(fetcher Fetcher, interval time.Duration, events *hub.Hub, sugar *zap.SugaredLogger) *Synchronizer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Synchronizer{
		fetcher:   fetcher,
		interval:  interval,
		hub:       events,
		eventKey:  hub.KeyConversation,
		sugar:     sugar,
		newTicker: newTimeTicker,
		now:       time.Now,
	}
}

// Open makes target the displayed conversation and starts polling it with
// an immediate first pass. Opening the conversation already displayed
// keeps its session. A target that does not exist is chaterr.ErrNotFound
// and leaves the displayed conversation as it was.
func (s *Synchronizer) Open(ctx context.Context, target Target) error {
	if err := s.fetcher.Resolve(ctx, target); err != nil {
		return err
	}

	s.mutex.Lock()
	prev := s.active
	if prev != nil && prev.target.Key() == target.Key() {
		s.mutex.Unlock()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{
		target: target,
		ctx:    ctx,
		cancel: cancel,
		slot:   make(chan struct{}, 1),
	}
	s.active = sess
	s.mutex.Unlock()

	if prev != nil {
		prev.cancel()
		metrics.ActiveConversations.Dec()
		s.sugar.Debugf("Abandoned conversation %s", prev.target)
	}

	metrics.ActiveConversations.Inc()
	s.sugar.Debugf("Opened conversation %s", target)

	s.passes.Add(1)
	go s.run(sess)
	return nil
}

// Close stops polling and waits for every polling loop and scheduled pass,
// including those of abandoned conversations, to return.
func (s *Synchronizer) Close() {
	s.mutex.Lock()
	sess := s.active
	s.active = nil
	s.mutex.Unlock()

	if sess != nil {
		sess.cancel()
		metrics.ActiveConversations.Dec()
		s.sugar.Debugf("Closed conversation %s", sess.target)
	}
	s.passes.Wait()
}

// Active returns the displayed conversation.
func (s *Synchronizer) Active() (Target, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.active == nil {
		return Target{}, false
	}
	return s.active.target, true
}

// View returns the latest applied view of the displayed conversation.
// It reports false until the first pass has succeeded.
func (s *Synchronizer) View() (View, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.active == nil || !s.active.hasView {
		return View{}, false
	}
	return s.active.view, true
}

// SyncNow runs a pass for target outside the schedule. If a scheduled pass
// for the displayed conversation is in flight, SyncNow waits for it and
// then runs its own, so the result reflects everything written before the
// call. A target that is not displayed is fetched once without touching
// the displayed view.
func (s *Synchronizer) SyncNow(ctx context.Context, target Target) (View, error) {
	if err := target.Validate(); err != nil {
		return View{}, err
	}

	s.mutex.Lock()
	sess := s.active
	s.mutex.Unlock()

	if sess == nil || sess.target.Key() != target.Key() {
		items, err := s.fetcher.Fetch(ctx, target)
		if err != nil {
			return View{}, err
		}
		return newView(target, items, 0, s.now()), nil
	}

	select {
	case sess.slot <- struct{}{}:
	case <-ctx.Done():
		return View{}, ctx.Err()
	case <-sess.ctx.Done():
		return View{}, ErrAbandoned
	}
	defer func() { <-sess.slot }()

	passCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(sess.ctx, cancel)
	defer stop()

	return s.pass(passCtx, sess, "forced")
}

func (s *Synchronizer) run(sess *session) {
	defer s.passes.Done()

	ticker := s.newTicker(s.interval)
	defer ticker.Stop()

	s.tryPass(sess)
	for {
		select {
		case <-sess.ctx.Done():
			return
		case <-ticker.Chan():
			s.tryPass(sess)
		}
	}
}

// tryPass starts a scheduled pass unless one is already in flight.
func (s *Synchronizer) tryPass(sess *session) {
	select {
	case sess.slot <- struct{}{}:
	default:
		metrics.PollsTotal.WithLabelValues(string(sess.target.Mode), metrics.PollSkipped).Inc()
		s.sugar.Debugf("Skipping poll of %s, previous one still running", sess.target)
		return
	}

	s.passes.Add(1)
	go func() {
		defer s.passes.Done()
		defer func() { <-sess.slot }()
		_, _ = s.pass(sess.ctx, sess, "scheduled")
	}()
}

func (s *Synchronizer) pass(ctx context.Context, sess *session, reason string) (View, error) {
	mode := string(sess.target.Mode)
	start := time.Now()

	items, err := s.fetcher.Fetch(ctx, sess.target)
	metrics.PollDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	if err != nil {
		if sess.ctx.Err() != nil {
			metrics.PollsTotal.WithLabelValues(mode, metrics.PollDropped).Inc()
			return View{}, ErrAbandoned
		}
		metrics.PollsTotal.WithLabelValues(mode, metrics.PollError).Inc()
		s.sugar.Warnf("%s poll of %s failed, keeping previous view: %v", reason, sess.target, err)
		return View{}, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.active != sess || sess.ctx.Err() != nil {
		metrics.PollsTotal.WithLabelValues(mode, metrics.PollDropped).Inc()
		s.sugar.Debugf("Dropping late result for %s", sess.target)
		return View{}, ErrAbandoned
	}

	sess.version++
	sess.view = newView(sess.target, items, sess.version, s.now())
	sess.hasView = true
	metrics.PollsTotal.WithLabelValues(mode, metrics.PollOK).Inc()

	if s.hub != nil {
		if err := s.hub.Emit(hub.ViewUpdated, s.eventKey, sess.view); err != nil {
			s.sugar.Error(err)
		}
	}

	return sess.view, nil
}
