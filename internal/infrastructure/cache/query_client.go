// Package cache holds keyed query results with a staleness policy, change
// subscriptions and an optional Redis mirror for warming a cold process.
package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"nft-marketplace.backend/pkg/logger"
	"nft-marketplace.backend/pkg/metrics"
)

// Query keys
const (
	KeyNFTs     = "nfts"
	KeyUserNFTs = "user-nfts"
	KeyStats    = "nft-stats"

	mirrorPrefix = "query:"
)

// UserNFTsKey is the key of one owner's catalog
func UserNFTsKey(address string) string {
	return KeyUserNFTs + ":" + strings.ToLower(address)
}

// Status is the lifecycle state of a query
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// QueryOptions control freshness. GCTime also bounds the Redis mirror TTL.
type QueryOptions struct {
	StaleTime time.Duration
	GCTime    time.Duration
}

// QueryState is the last known result of a query
type QueryState struct {
	Key          string
	Status       Status
	Data         interface{}
	Err          error
	UpdatedAt    time.Time
	FetchedCount int
	Invalidated  bool
}

// IsLoading reports whether a fetch is in flight
func (s QueryState) IsLoading() bool { return s.Status == StatusLoading }

// HasData reports whether a previous fetch succeeded
func (s QueryState) HasData() bool { return !s.UpdatedAt.IsZero() }

type entry struct {
	state      QueryState
	opts       QueryOptions
	lastAccess time.Time
	subs       map[int]chan QueryState

	// gen counts invalidations. A result read under an older gen is never
	// cached as fresh, and storedGen keeps a slow old flight from
	// overwriting a newer result.
	gen       uint64
	storedGen uint64
	inflight  int
}

type mirrored struct {
	UpdatedAt time.Time       `json:"updatedAt"`
	Data      json.RawMessage `json:"data"`
}

// QueryClient is safe for concurrent use
type QueryClient struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
	nextSub int

	mirror  *redis.Client
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewQueryClient creates a query client. mirror and m may be nil.
func NewQueryClient(mirror *redis.Client, m *metrics.Metrics) *QueryClient {
	return &QueryClient{
		entries: make(map[string]*entry),
		mirror:  mirror,
		metrics: m,
		now:     time.Now,
	}
}

// Fetch returns the cached value of key while it is fresh. Otherwise it runs fn,
// at most once per key at a time, and caches the outcome. A failed fetch keeps
// the previous data and returns it alongside the error.
func Fetch[T any](ctx context.Context, qc *QueryClient, key string, opts QueryOptions, fn func(context.Context) (T, error)) (T, error) {
	if v, ok := lookupFresh[T](ctx, qc, key, opts); ok {
		qc.metrics.ObserveQuery(metrics.ResultHit)
		return v, nil
	}
	qc.metrics.ObserveQuery(metrics.ResultMiss)

	ch := qc.group.DoChan(qc.flightKey(key), func() (interface{}, error) {
		gen := qc.markLoading(key, opts)
		v, err := fn(context.WithoutCancel(ctx))
		if err != nil {
			qc.storeError(key, gen, err)
			return nil, err
		}
		qc.storeSuccess(ctx, key, opts, gen, v)
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			qc.metrics.ObserveQuery(metrics.ResultError)
			prev, _ := qc.cachedData(key).(T)
			return prev, res.Err
		}
		v, ok := res.Val.(T)
		if !ok {
			return zero, nil
		}
		return v, nil
	}
}

func lookupFresh[T any](ctx context.Context, qc *QueryClient, key string, opts QueryOptions) (T, bool) {
	var zero T
	now := qc.now()

	qc.mu.Lock()
	e, ok := qc.entries[key]
	if ok {
		e.lastAccess = now
		e.opts = opts
		if e.state.HasData() && !e.state.Invalidated && now.Sub(e.state.UpdatedAt) < opts.StaleTime {
			v, typed := e.state.Data.(T)
			qc.mu.Unlock()
			return v, typed
		}
		qc.mu.Unlock()
		return zero, false
	}
	qc.mu.Unlock()

	if qc.mirror == nil {
		return zero, false
	}
	raw, err := qc.mirror.Get(ctx, mirrorPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn(ctx, "Query mirror read failed", zap.String("key", key), zap.Error(err))
		}
		return zero, false
	}
	var m mirrored
	var v T
	if err := json.Unmarshal(raw, &m); err != nil || json.Unmarshal(m.Data, &v) != nil {
		return zero, false
	}

	qc.mu.Lock()
	defer qc.mu.Unlock()
	if _, exists := qc.entries[key]; exists {
		return zero, false
	}
	e = qc.newEntry(key, opts)
	e.state.Status = StatusSuccess
	e.state.Data = v
	e.state.UpdatedAt = m.UpdatedAt
	qc.entries[key] = e
	return v, now.Sub(m.UpdatedAt) < opts.StaleTime
}

func (qc *QueryClient) newEntry(key string, opts QueryOptions) *entry {
	return &entry{
		state:      QueryState{Key: key, Status: StatusIdle},
		opts:       opts,
		lastAccess: qc.now(),
		subs:       make(map[int]chan QueryState),
	}
}

func (qc *QueryClient) entryLocked(key string, opts QueryOptions) *entry {
	e, ok := qc.entries[key]
	if !ok {
		e = qc.newEntry(key, opts)
		qc.entries[key] = e
	}
	return e
}

// flightKey scopes in-flight fetches to the key's current generation, so a
// caller arriving after Invalidate starts a new fetch instead of joining one
// that may have read pre-invalidation data.
func (qc *QueryClient) flightKey(key string) string {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	var gen uint64
	if e, ok := qc.entries[key]; ok {
		gen = e.gen
	}
	return key + "#" + strconv.FormatUint(gen, 10)
}

func (qc *QueryClient) markLoading(key string, opts QueryOptions) uint64 {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	e := qc.entryLocked(key, opts)
	e.inflight++
	e.state.Status = StatusLoading
	qc.notifyLocked(e)
	return e.gen
}

// settledStatusLocked is status unless another fetch of the entry is still running
func settledStatusLocked(e *entry, status Status) Status {
	e.inflight--
	if e.inflight > 0 {
		return StatusLoading
	}
	return status
}

func (qc *QueryClient) storeSuccess(ctx context.Context, key string, opts QueryOptions, gen uint64, v interface{}) {
	now := qc.now()

	qc.mu.Lock()
	e := qc.entryLocked(key, opts)
	e.state.Status = settledStatusLocked(e, StatusSuccess)
	if gen < e.storedGen {
		qc.notifyLocked(e)
		qc.mu.Unlock()
		return
	}
	e.storedGen = gen
	e.state.Data = v
	e.state.Err = nil
	e.state.UpdatedAt = now
	e.state.FetchedCount++
	current := gen == e.gen
	e.state.Invalidated = !current
	qc.notifyLocked(e)
	qc.mu.Unlock()

	if !current || qc.mirror == nil || opts.GCTime <= 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	payload, _ := json.Marshal(mirrored{UpdatedAt: now, Data: data})
	if err := qc.mirror.Set(context.WithoutCancel(ctx), mirrorPrefix+key, payload, opts.GCTime).Err(); err != nil {
		logger.Warn(ctx, "Query mirror write failed", zap.String("key", key), zap.Error(err))
	}
}

func (qc *QueryClient) storeError(key string, gen uint64, err error) {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	e, ok := qc.entries[key]
	if !ok {
		return
	}
	e.state.Status = settledStatusLocked(e, StatusError)
	if gen < e.storedGen {
		qc.notifyLocked(e)
		return
	}
	e.state.Err = err
	qc.notifyLocked(e)
}

func (qc *QueryClient) cachedData(key string) interface{} {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	if e, ok := qc.entries[key]; ok {
		return e.state.Data
	}
	return nil
}

// notifyLocked delivers the latest state to every subscriber, replacing an undelivered one.
func (qc *QueryClient) notifyLocked(e *entry) {
	for _, ch := range e.subs {
		select {
		case ch <- e.state:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- e.state
		}
	}
}

// Peek returns the current state of key without fetching
func (qc *QueryClient) Peek(key string) (QueryState, bool) {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	e, ok := qc.entries[key]
	if !ok {
		return QueryState{Key: key, Status: StatusIdle}, false
	}
	return e.state, true
}

// Invalidate marks every key equal to or nested under prefix as stale and
// drops their mirrored copies. It returns the number of local entries marked.
func (qc *QueryClient) Invalidate(ctx context.Context, prefix string) int {
	qc.mu.Lock()
	n := 0
	for key, e := range qc.entries {
		if key == prefix || strings.HasPrefix(key, prefix+":") {
			e.gen++
			e.state.Invalidated = true
			qc.notifyLocked(e)
			n++
		}
	}
	qc.mu.Unlock()

	if qc.mirror != nil {
		qc.dropMirror(ctx, prefix)
	}
	return n
}

func (qc *QueryClient) dropMirror(ctx context.Context, prefix string) {
	keys := []string{mirrorPrefix + prefix}
	iter := qc.mirror.Scan(ctx, 0, mirrorPrefix+prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Warn(ctx, "Query mirror scan failed", zap.String("prefix", prefix), zap.Error(err))
	}
	if err := qc.mirror.Del(ctx, keys...).Err(); err != nil {
		logger.Warn(ctx, "Query mirror delete failed", zap.String("prefix", prefix), zap.Error(err))
	}
}

// Subscribe returns a channel receiving the latest state of key after each change
func (qc *QueryClient) Subscribe(key string) (<-chan QueryState, func()) {
	qc.mu.Lock()
	defer qc.mu.Unlock()

	e := qc.entryLocked(key, QueryOptions{})
	id := qc.nextSub
	qc.nextSub++
	ch := make(chan QueryState, 1)
	e.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			qc.mu.Lock()
			defer qc.mu.Unlock()
			if cur, ok := qc.entries[key]; ok {
				delete(cur.subs, id)
			}
			close(ch)
		})
	}
}

// IsStale reports whether key needs a refetch under opts
func (qc *QueryClient) IsStale(key string, opts QueryOptions) bool {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	e, ok := qc.entries[key]
	if !ok || !e.state.HasData() || e.state.Invalidated {
		return true
	}
	return qc.now().Sub(e.state.UpdatedAt) >= opts.StaleTime
}

// GC drops entries nobody has read for longer than their GCTime and that have no subscribers
func (qc *QueryClient) GC() int {
	now := qc.now()
	qc.mu.Lock()
	defer qc.mu.Unlock()

	removed := 0
	for key, e := range qc.entries {
		if len(e.subs) > 0 || e.inflight > 0 {
			continue
		}
		if now.Sub(e.lastAccess) > e.opts.GCTime {
			delete(qc.entries, key)
			removed++
		}
	}
	return removed
}
