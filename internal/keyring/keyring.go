// Package keyring holds the provider API keys a session signs requests with
// and decides when to move on to the next one.
package keyring

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RotationStrategy controls when the ring advances to the next key.
type RotationStrategy int

const (
	// RotationRoundRobin advances on every Next call.
	RotationRoundRobin RotationStrategy = iota
	// RotationOnError advances after any failed request.
	RotationOnError
	// RotationOnRateLimit advances only when the provider throttles the key.
	RotationOnRateLimit
)

func (s RotationStrategy) String() string {
	return [...]string{"round_robin", "on_error", "on_rate_limit"}[s]
}

// APIKey is a single provider credential.
type APIKey struct {
	ID         string
	Key        string
	Disabled   bool
	LastUsed   time.Time
	ErrorCount int
}

func (k *APIKey) String() string {
	return fmt.Sprintf("APIKey{ID:%s, Key:%s}", k.ID, maskKey(k.Key))
}

// KeyRing is safe for concurrent use.
type KeyRing struct {
	mu       sync.RWMutex
	keys     []*APIKey
	current  int
	strategy RotationStrategy
	logger   zerolog.Logger
}

// New copies keys into a ring.
func New(keys []*APIKey, strategy RotationStrategy) *KeyRing {
	copied := make([]*APIKey, 0, len(keys))
	for _, k := range keys {
		c := *k
		copied = append(copied, &c)
	}
	return &KeyRing{
		keys:     copied,
		strategy: strategy,
		logger:   zerolog.Nop(),
	}
}

// FromList builds a ring from raw key strings such as a comma-separated
// environment value. Blank entries are skipped and IDs are assigned by
// position.
func FromList(raw []string, strategy RotationStrategy) *KeyRing {
	keys := make([]*APIKey, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		keys = append(keys, &APIKey{ID: fmt.Sprintf("key-%d", len(keys)+1), Key: r})
	}
	return New(keys, strategy)
}

// WithLogger sets the logger used for rotation events.
func (k *KeyRing) WithLogger(logger zerolog.Logger) *KeyRing {
	k.mu.Lock()
	k.logger = logger
	k.mu.Unlock()
	return k
}

// Len returns the number of keys, disabled ones included.
func (k *KeyRing) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.keys)
}

// Current returns the active key, or nil when every key is disabled.
func (k *KeyRing) Current() *APIKey {
	k.mu.RLock()
	defer k.mu.RUnlock()
	idx := k.enabledFrom(k.current)
	if idx < 0 {
		return nil
	}
	return k.keys[idx]
}

// Next returns the key to sign the next request with and marks it used.
// Under RotationRoundRobin the ring advances afterwards.
func (k *KeyRing) Next() (*APIKey, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	idx := k.enabledFrom(k.current)
	if idx < 0 {
		return nil, false
	}
	k.current = idx
	key := k.keys[idx]
	key.LastUsed = time.Now()

	if k.strategy == RotationRoundRobin {
		k.advance()
	}
	c := *key
	return &c, true
}

// OnError records a failure against the key with the given ID. rateLimited
// reports whether the provider rejected the key for throttling.
func (k *KeyRing) OnError(id string, rateLimited bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, key := range k.keys {
		if key.ID == id {
			key.ErrorCount++
			break
		}
	}

	switch {
	case k.strategy == RotationOnError,
		k.strategy == RotationOnRateLimit && rateLimited:
		k.advance()
		k.logger.Debug().
			Str("failed_key", id).
			Bool("rate_limited", rateLimited).
			Msg("rotated api key")
	}
}

// Rotate moves to the next enabled key.
func (k *KeyRing) Rotate() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.advance()
}

func (k *KeyRing) advance() {
	if len(k.keys) == 0 {
		return
	}
	if idx := k.enabledFrom(k.current + 1); idx >= 0 {
		k.current = idx
	}
}

// enabledFrom returns the first enabled key index at or after start,
// wrapping around, or -1.
func (k *KeyRing) enabledFrom(start int) int {
	n := len(k.keys)
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		if !k.keys[idx].Disabled {
			return idx
		}
	}
	return -1
}

// Disable takes a key out of rotation, e.g. after an authentication failure.
func (k *KeyRing) Disable(id string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, key := range k.keys {
		if key.ID == id {
			key.Disabled = true
			k.logger.Warn().Str("key", key.String()).Msg("api key disabled")
			return
		}
	}
}

// Enable returns a key to rotation and clears its error count.
func (k *KeyRing) Enable(id string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, key := range k.keys {
		if key.ID == id {
			key.Disabled = false
			key.ErrorCount = 0
			return
		}
	}
}

// Add appends a key unless one with the same ID exists.
func (k *KeyRing) Add(key *APIKey) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, existing := range k.keys {
		if existing.ID == key.ID {
			return
		}
	}
	k.keys = append(k.keys, &APIKey{ID: key.ID, Key: key.Key})
}

// Remove drops the key with the given ID.
func (k *KeyRing) Remove(id string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for i, key := range k.keys {
		if key.ID == id {
			k.keys = append(k.keys[:i], k.keys[i+1:]...)
			if k.current >= len(k.keys) {
				k.current = 0
			}
			return
		}
	}
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
