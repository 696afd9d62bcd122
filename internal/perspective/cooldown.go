package perspective

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultCooldown is the minimum gap between two alerts from one sender.
const DefaultCooldown = time.Second

// CooldownError rejects an alert sent too soon after the previous one.
type CooldownError struct {
	Remaining time.Duration
}

// Seconds is the remaining wait rounded up to whole seconds.
func (e *CooldownError) Seconds() int {
	return int((e.Remaining + time.Second - 1) / time.Second)
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("Please wait %ds before sending another alert", e.Seconds())
}

// Cooldown is the local spam guard for outgoing alerts.
type Cooldown struct {
	mu     sync.Mutex
	clock  clock.Clock
	window time.Duration
	last   time.Time
	used   bool
}

func NewCooldown(clk clock.Clock, window time.Duration) *Cooldown {
	if window <= 0 {
		window = DefaultCooldown
	}
	return &Cooldown{clock: clk, window: window}
}

// Check returns a *CooldownError while the window since the last recorded
// alert is still open.
func (c *Cooldown) Check() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.used {
		return nil
	}
	elapsed := c.clock.Now().Sub(c.last)
	if elapsed < c.window {
		return &CooldownError{Remaining: c.window - elapsed}
	}
	return nil
}

// Record starts a new window now.
func (c *Cooldown) Record() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = c.clock.Now()
	c.used = true
}
