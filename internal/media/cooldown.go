package media

import (
	"sync"
	"time"
)

// DefaultCooldown is the pause after a spawner fires before it fires again.
const DefaultCooldown = time.Second

// Cooldowns tracks when each spawner may fire again.
type Cooldowns struct {
	mu        sync.Mutex
	now       func() time.Time
	def       time.Duration
	durations map[string]time.Duration
	until     map[string]time.Time
}

// NewCooldowns uses def for spawners without their own duration. A nil now
// uses the wall clock.
func NewCooldowns(def time.Duration, now func() time.Time) *Cooldowns {
	if now == nil {
		now = time.Now
	}
	return &Cooldowns{
		now:       now,
		def:       def,
		durations: make(map[string]time.Duration),
		until:     make(map[string]time.Time),
	}
}

// SetDuration overrides the cooldown of one spawner. Zero disables it.
func (c *Cooldowns) SetDuration(spawner string, d time.Duration) {
	c.mu.Lock()
	c.durations[spawner] = d
	c.mu.Unlock()
}

func (c *Cooldowns) Activate(spawner string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.durations[spawner]
	if !ok {
		d = c.def
	}
	if d <= 0 {
		return
	}
	c.until[spawner] = c.now().Add(d)
}

func (c *Cooldowns) Active(spawner string) bool {
	return c.Remaining(spawner) > 0
}

// Remaining reports how long spawner stays cooling, zero when ready.
func (c *Cooldowns) Remaining(spawner string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	until, ok := c.until[spawner]
	if !ok {
		return 0
	}
	left := until.Sub(c.now())
	if left <= 0 {
		delete(c.until, spawner)
		return 0
	}
	return left
}
