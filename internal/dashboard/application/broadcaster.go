package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	dashboard "energyguard/internal/dashboard/domain"
	"energyguard/internal/observability/metrics"
)

// Broadcaster states.
const (
	StateIdle   = "idle"
	StateActive = "active"
)

// ErrSubscriberLimit is returned when the subscriber cap is reached.
var ErrSubscriberLimit = errors.New("broadcast: subscriber limit reached")

// Callback receives one broadcast update. It must return before the
// subscriber timeout or the subscriber is dropped.
type Callback func(ctx context.Context, update Update) error

// BroadcasterConfig tunes the fan-out loop.
type BroadcasterConfig struct {
	Interval          time.Duration
	SubscriberTimeout time.Duration
	MaxSubscribers    int
	FullSyncThreshold float64
}

type subscriber struct {
	id       uint64
	callback Callback
	synced   bool
}

// Broadcaster maintains one periodic snapshot refresh regardless of
// subscriber count and fans updates out to all subscribers. With no
// subscribers it is idle and owns no timer; the first subscriber starts the
// refresh loop and the last one leaving stops it.
type Broadcaster struct {
	snapshots *SnapshotService
	config    BroadcasterConfig
	logger    zerolog.Logger

	group singleflight.Group

	mu     sync.Mutex
	subs   map[uint64]*subscriber
	nextID uint64
	seq    uint64
	prev   *dashboard.Snapshot
	cancel context.CancelFunc
}

// NewBroadcaster constructs an idle broadcaster.
func NewBroadcaster(snapshots *SnapshotService, config BroadcasterConfig, logger zerolog.Logger) *Broadcaster {
	if config.Interval <= 0 {
		config.Interval = 10 * time.Second
	}
	if config.SubscriberTimeout <= 0 {
		config.SubscriberTimeout = 30 * time.Second
	}
	if config.MaxSubscribers <= 0 {
		config.MaxSubscribers = 100
	}
	if config.FullSyncThreshold <= 0 || config.FullSyncThreshold > 1 {
		config.FullSyncThreshold = 0.7
	}
	return &Broadcaster{
		snapshots: snapshots,
		config:    config,
		logger:    logger,
		subs:      make(map[uint64]*subscriber),
	}
}

// Subscribe registers a callback and returns its unsubscribe function. The
// first subscriber triggers an immediate refresh-and-broadcast and starts the
// periodic loop. Subscribing beyond the limit fails.
func (b *Broadcaster) Subscribe(callback Callback) (func(), error) {
	if callback == nil {
		return nil, errors.New("broadcast: nil callback")
	}

	b.mu.Lock()
	if len(b.subs) >= b.config.MaxSubscribers {
		b.mu.Unlock()
		metrics.IncSubscriberDropped("limit")
		return nil, ErrSubscriberLimit
	}
	b.nextID++
	id := b.nextID
	b.subs[id] = &subscriber{id: id, callback: callback}
	first := len(b.subs) == 1
	if first {
		ctx, cancel := context.WithCancel(context.Background())
		b.cancel = cancel
		go b.run(ctx)
	}
	metrics.SetSubscribers(len(b.subs))
	b.mu.Unlock()

	b.logger.Debug().Uint64("subscriber_id", id).Msg("subscriber joined")
	return func() { b.remove(id, "unsubscribe") }, nil
}

// State reports idle or active.
func (b *Broadcaster) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.subs) == 0 {
		return StateIdle
	}
	return StateActive
}

// Subscribers returns the current subscriber count.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Stop drops all subscribers and halts the refresh loop.
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[uint64]*subscriber)
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	metrics.SetSubscribers(0)
}

func (b *Broadcaster) remove(id uint64, reason string) {
	b.mu.Lock()
	if _, ok := b.subs[id]; !ok {
		b.mu.Unlock()
		return
	}
	delete(b.subs, id)
	last := len(b.subs) == 0
	if last && b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	metrics.SetSubscribers(len(b.subs))
	b.mu.Unlock()

	if reason != "unsubscribe" {
		metrics.IncSubscriberDropped(reason)
	}
	b.logger.Debug().Uint64("subscriber_id", id).Str("reason", reason).Msg("subscriber left")
}

func (b *Broadcaster) run(ctx context.Context) {
	b.broadcast(ctx)
	ticker := time.NewTicker(b.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.broadcast(ctx)
		}
	}
}

// broadcast refreshes the snapshot and delivers one update round. Concurrent
// invocations coalesce on a single refresh; a refresh failure skips the round
// and keeps the last good snapshot.
func (b *Broadcaster) broadcast(ctx context.Context) {
	snapshot, err := b.refresh(ctx)
	if err != nil {
		b.logger.Warn().Err(err).Msg("snapshot refresh failed, skipping broadcast round")
		return
	}

	b.mu.Lock()
	b.seq++
	seq := b.seq
	update := ComputeUpdate(b.prev, snapshot, b.config.FullSyncThreshold)
	update.Seq = seq
	full := Update{Kind: UpdateFull, Seq: seq, Snapshot: snapshot}
	targets := make([]*subscriber, 0, len(b.subs))
	for _, sub := range b.subs {
		targets = append(targets, sub)
	}
	b.prev = snapshot
	b.mu.Unlock()

	var wg sync.WaitGroup
	for _, sub := range targets {
		message := update
		if !b.isSynced(sub.id) {
			message = full
		}
		wg.Add(1)
		go func(sub *subscriber, message Update) {
			defer wg.Done()
			b.deliver(ctx, sub, message)
		}(sub, message)
	}
	wg.Wait()
}

func (b *Broadcaster) refresh(ctx context.Context) (*dashboard.Snapshot, error) {
	start := time.Now()
	value, err, _ := b.group.Do("snapshot", func() (any, error) {
		return b.snapshots.Current(ctx)
	})
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveRefresh(result, time.Since(start))
	if err != nil {
		return nil, err
	}
	return value.(*dashboard.Snapshot), nil
}

// deliver runs one callback bounded by the subscriber timeout. A callback
// that errors or does not return in time is treated as dead and removed; the
// rest of the round is unaffected.
func (b *Broadcaster) deliver(ctx context.Context, sub *subscriber, message Update) {
	callCtx, cancel := context.WithTimeout(ctx, b.config.SubscriberTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- sub.callback(callCtx, message)
	}()

	select {
	case err := <-done:
		if err != nil {
			b.logger.Warn().Err(err).Uint64("subscriber_id", sub.id).Msg("subscriber callback failed")
			b.remove(sub.id, "error")
			return
		}
		b.setSynced(sub.id)
		metrics.IncBroadcastMessage(message.Kind)
	case <-callCtx.Done():
		b.logger.Warn().Uint64("subscriber_id", sub.id).Msg("subscriber callback timed out")
		b.remove(sub.id, "timeout")
	}
}

func (b *Broadcaster) isSynced(id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.subs[id]
	return ok && sub.synced
}

func (b *Broadcaster) setSynced(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		sub.synced = true
	}
}
