package pipeline

import "time"

// SetDrainTimeout shortens the shutdown flush for tests.
func (p *Publisher) SetDrainTimeout(d time.Duration) { p.drainTimeout = d }
