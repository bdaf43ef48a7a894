package service

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	gonanoid "github.com/matoous/go-nanoid"

	"github.com/cropfusion/cropfusion/internal/observability"
)

const tokenAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// DefaultHandoffTTL bounds how long a result stays reachable after submit.
const DefaultHandoffTTL = 30 * time.Minute

// Handoff carries the predicted label from the form to the result view.
// It holds the label by value under an opaque token; the result view is
// unusable without a live token.
type Handoff struct {
	mu      sync.Mutex
	entries map[string]handoffEntry
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics

	done chan struct{}
	wg   sync.WaitGroup
}

type handoffEntry struct {
	label   string
	expires time.Time
}

// NewHandoff creates a handoff store and starts its expiry sweeper.
// Call Close to stop the sweeper.
func NewHandoff(ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *Handoff {
	if ttl <= 0 {
		ttl = DefaultHandoffTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	h := &Handoff{
		entries: make(map[string]handoffEntry),
		ttl:     ttl,
		clock:   clock,
		metrics: metrics,
		done:    make(chan struct{}),
	}
	h.wg.Add(1)
	go h.sweep()
	return h
}

// Put stores label and returns its token.
func (h *Handoff) Put(label string) (string, error) {
	token, err := gonanoid.Generate(tokenAlphabet, 21)
	if err != nil {
		return "", err
	}

	h.mu.Lock()
	h.entries[token] = handoffEntry{label: label, expires: h.clock.Now().Add(h.ttl)}
	n := len(h.entries)
	h.mu.Unlock()

	h.metrics.HandoffEntries.Set(float64(n))
	return token, nil
}

// Get returns the label for token. Unknown or expired tokens report false.
func (h *Handoff) Get(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.entries[token]
	if !ok {
		return "", false
	}
	if !h.clock.Now().Before(e.expires) {
		delete(h.entries, token)
		return "", false
	}
	return e.label, true
}

// Len returns the number of stored entries, expired ones included until swept.
func (h *Handoff) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Close stops the sweeper.
func (h *Handoff) Close() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
	h.wg.Wait()
}

func (h *Handoff) sweep() {
	defer h.wg.Done()
	ticker := h.clock.NewTicker(h.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.Chan():
			h.evictExpired()
		}
	}
}

func (h *Handoff) evictExpired() {
	h.mu.Lock()
	now := h.clock.Now()
	for token, e := range h.entries {
		if !now.Before(e.expires) {
			delete(h.entries, token)
		}
	}
	n := len(h.entries)
	h.mu.Unlock()

	h.metrics.HandoffEntries.Set(float64(n))
}
