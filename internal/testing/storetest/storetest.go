// Package storetest provides stores for tests: a throwaway sqlite store
// and a wrapper that injects failures and holds calls open.
package storetest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"chatapp-client/internal/database"
	"chatapp-client/internal/entities"
	"chatapp-client/internal/snowflake"

	"go.uber.org/zap"
)

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// NewStore opens an in-memory sqlite store that is closed with the test.
func NewStore(t testing.TB) *database.Store {
	return NewStoreWithClock(t, nil)
}

// NewStoreWithClock is NewStore with identifiers minted from clock.
func NewStoreWithClock(t testing.TB, clock *Clock) *database.Store {
	t.Helper()

	sugar := zap.NewNop().Sugar()

	db, err := database.OpenSQLite(":memory:", sugar)
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ids, err := snowflake.New(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	if clock != nil {
		ids.WithClock(clock.Now)
	}

	return database.NewStore(db, ids, sugar)
}

// Gate wraps a store. While failing, every call returns the configured
// error. While held, Filter calls wait until released or cancelled.
type Gate struct {
	entities.Store

	mu         sync.Mutex
	err        error
	createErrs map[entities.Kind]error
	hold       chan struct{}
	started    chan entities.Query

	filters atomic.Int32
	creates atomic.Int32
}

func NewGate(store entities.Store) *Gate {
	return &Gate{Store: store, started: make(chan entities.Query, 64)}
}

// Fail makes calls return err until Fail(nil).
func (g *Gate) Fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

// Hold makes subsequent Filter calls block until Release.
func (g *Gate) Hold() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.hold == nil {
		g.hold = make(chan struct{})
	}
}

// Release unblocks held Filter calls.
func (g *Gate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.hold != nil {
		close(g.hold)
		g.hold = nil
	}
}

// Started receives the query of every Filter call as it begins.
func (g *Gate) Started() <-chan entities.Query {
	return g.started
}

func (g *Gate) Filters() int {
	return int(g.filters.Load())
}

func (g *Gate) Creates() int {
	return int(g.creates.Load())
}

// FailCreates makes Create and BulkCreate of kind return err until
// FailCreates(kind, nil).
func (g *Gate) FailCreates(kind entities.Kind, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErrs == nil {
		g.createErrs = make(map[entities.Kind]error)
	}
	if err == nil {
		delete(g.createErrs, kind)
		return
	}
	g.createErrs[kind] = err
}

func (g *Gate) state() (chan struct{}, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hold, g.err
}

func (g *Gate) createState(kind entities.Kind) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	return g.createErrs[kind]
}

func (g *Gate) Get(ctx context.Context, kind entities.Kind, id int64) (entities.Record, error) {
	if _, err := g.state(); err != nil {
		return nil, err
	}
	return g.Store.Get(ctx, kind, id)
}

func (g *Gate) Filter(ctx context.Context, kind entities.Kind, q entities.Query) ([]entities.Record, error) {
	g.filters.Add(1)
	select {
	case g.started <- q:
	default:
	}

	hold, err := g.state()
	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		_, err = g.state()
	}
	if err != nil {
		return nil, err
	}
	return g.Store.Filter(ctx, kind, q)
}

func (g *Gate) List(ctx context.Context, kind entities.Kind, orderBy string) ([]entities.Record, error) {
	if _, err := g.state(); err != nil {
		return nil, err
	}
	return g.Store.List(ctx, kind, orderBy)
}

func (g *Gate) Create(ctx context.Context, kind entities.Kind, fields entities.Fields) (entities.Record, error) {
	g.creates.Add(1)
	if err := g.createState(kind); err != nil {
		return nil, err
	}
	return g.Store.Create(ctx, kind, fields)
}

func (g *Gate) BulkCreate(ctx context.Context, kind entities.Kind, fields []entities.Fields) ([]entities.Record, error) {
	g.creates.Add(1)
	if err := g.createState(kind); err != nil {
		return nil, err
	}
	return g.Store.BulkCreate(ctx, kind, fields)
}
