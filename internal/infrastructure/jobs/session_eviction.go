package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"nft-marketplace.backend/pkg/logger"
)

type idleEvicter interface {
	EvictIdle() int
}

// SessionEvictionJob drops the in-memory state of idle sessions
type SessionEvictionJob struct {
	sessions idleEvicter
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

func NewSessionEvictionJob(sessions idleEvicter, interval time.Duration) *SessionEvictionJob {
	return &SessionEvictionJob{sessions: sessions, interval: interval, stop: make(chan struct{})}
}

func (j *SessionEvictionJob) Start(ctx context.Context) {
	runEvery(ctx, "session-eviction", j.interval, j.stop, func(ctx context.Context) {
		if n := j.sessions.EvictIdle(); n > 0 {
			logger.Info(ctx, "Evicted idle sessions", zap.Int("count", n))
		}
	})
}

func (j *SessionEvictionJob) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
}
