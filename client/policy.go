package client

import "time"

// ReconnectPolicy controls how long the controller waits between
// reconnection attempts. Attempts are unbounded in count; the policy only
// shapes the delay.
type ReconnectPolicy interface {
	// NextDelay returns the wait before attempt n (0-based).
	NextDelay(attempt int) time.Duration
}

// CappedBackoff doubles the delay on every attempt up to a fixed cap.
type CappedBackoff struct {
	Initial time.Duration
	Max     time.Duration
}

// DefaultPolicy matches the reference client: 1s initial delay, 5s cap.
func DefaultPolicy() CappedBackoff {
	return CappedBackoff{Initial: time.Second, Max: 5 * time.Second}
}

func (b CappedBackoff) NextDelay(attempt int) time.Duration {
	delay := b.Initial
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= b.Max {
			return b.Max
		}
	}
	if delay > b.Max {
		return b.Max
	}
	return delay
}
