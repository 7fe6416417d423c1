package hub

import (
	"sync"
	"time"

	"github.com/wagerlab/arenacore/infrastructure/config"
)

// LogIntervalFromEnv reads BATTLE_LOG_INTERVAL_MS and clamps it to
// [MinLogInterval, MaxLogInterval] (spec §6).
func LogIntervalFromEnv() time.Duration {
	ms := config.GetEnvInt("BATTLE_LOG_INTERVAL_MS", int(DefaultLogInterval/time.Millisecond))
	d := time.Duration(ms) * time.Millisecond
	return config.ClampDuration(d, MinLogInterval, MaxLogInterval)
}

// Publisher is the subset of Hub's surface LogPacer needs, letting callers
// outside this package depend on the interface rather than *Hub.
type Publisher interface {
	Publish(room, eventType string, payload interface{})
}

// LogPacer batches battle:log publishes so the engine's potentially bursty
// log channel is drained onto the wire no faster than interval (spec §4.7
// "Delivery... paced by a configurable interval"). Lines enqueued between
// ticks are flushed together on the next tick, one publish per line.
type LogPacer struct {
	hub      Publisher
	room     string
	interval time.Duration
	done     chan struct{}

	mu      sync.Mutex
	pending []interface{}
}

// NewLogPacer starts a pacer that flushes queued payloads under
// EventBattleLog to room at most once per interval.
func NewLogPacer(h Publisher, room string, interval time.Duration) *LogPacer {
	p := &LogPacer{
		hub:      h,
		room:     room,
		interval: interval,
		done:     make(chan struct{}),
	}
	go p.run()
	return p
}

// Enqueue schedules a log payload for the next tick's flush. Never blocks.
func (p *LogPacer) Enqueue(payload interface{}) {
	p.mu.Lock()
	p.pending = append(p.pending, payload)
	p.mu.Unlock()
}

// Stop halts the pacer after flushing any remaining queued lines.
func (p *LogPacer) Stop() {
	close(p.done)
}

func (p *LogPacer) run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			p.flush()
			return
		case <-ticker.C:
			p.flush()
		}
	}
}

func (p *LogPacer) flush() {
	p.mu.Lock()
	batch := p.pending
	p.pending = nil
	p.mu.Unlock()

	for _, payload := range batch {
		p.hub.Publish(p.room, EventBattleLog, payload)
	}
}
