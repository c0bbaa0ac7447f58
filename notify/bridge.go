// Package notify republishes session notifications on the pub/sub layer so
// out-of-process listeners (HUDs, tooling) can follow item state.
package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/kasuganosora/itemruntime/cache"
	"github.com/kasuganosora/itemruntime/game/player"
	"go.uber.org/zap"
)

const channelPrefix = "items:"

// Channel returns the pub/sub channel carrying ownerID's notices.
func Channel(ownerID string) string { return channelPrefix + ownerID }

type outgoing struct {
	channel string
	payload []byte
}

// Bridge forwards session notices to a PubSub. Session listeners only
// enqueue; a single worker does the publishing.
type Bridge struct {
	ps      cache.PubSub
	ch      chan outgoing
	stopCh  chan struct{}
	wg      sync.WaitGroup
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Bridge and starts its worker.
func New(ps cache.PubSub, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bridge{
		ps:      ps,
		ch:      make(chan outgoing, 1024),
		stopCh:  make(chan struct{}),
		timeout: 2 * time.Second,
		logger:  logger,
	}
	b.wg.Add(1)
	go b.worker()
	return b
}

// Attach starts forwarding s's notices and returns a detach func.
func (b *Bridge) Attach(s *player.Session) func() {
	return s.Watch("notify", b.enqueue)
}

func (b *Bridge) enqueue(n player.Notice) {
	payload, err := json.Marshal(n)
	if err != nil {
		b.logger.Warn("notice encode failed", zap.String("type", n.Type), zap.Error(err))
		return
	}
	select {
	case b.ch <- outgoing{channel: Channel(n.Owner), payload: payload}:
	default:
		b.logger.Warn("notify queue full, dropping notice",
			zap.String("owner", n.Owner), zap.String("type", n.Type))
	}
}

// Stop publishes what is queued and shuts down the worker.
func (b *Bridge) Stop() {
	select {
	case <-b.stopCh:
	default:
		close(b.stopCh)
	}
	b.wg.Wait()
}

func (b *Bridge) publish(o outgoing) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	if err := b.ps.Publish(ctx, o.channel, string(o.payload)); err != nil {
		b.logger.Warn("notice publish failed", zap.String("channel", o.channel), zap.Error(err))
	}
}

func (b *Bridge) worker() {
	defer b.wg.Done()
	for {
		select {
		case o := <-b.ch:
			b.publish(o)
		case <-b.stopCh:
			for {
				select {
				case o := <-b.ch:
					b.publish(o)
				default:
					return
				}
			}
		}
	}
}
