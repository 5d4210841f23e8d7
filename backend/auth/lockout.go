package auth

import "time"

// Lockout is the per-channel failure state carried in the session. The login
// and two-factor channels each hold their own independent value.
type Lockout struct {
	Attempts  int
	LockUntil time.Time
}

// LockoutPolicy enforces "N consecutive failures => cooldown window" on a
// channel. The zero Clock defaults to time.Now; tests inject a fake.
type LockoutPolicy struct {
	Threshold int
	Window    time.Duration
	Clock     func() time.Time
}

func (p LockoutPolicy) now() time.Time {
	if p.Clock != nil {
		return p.Clock()
	}
	return time.Now()
}

// Locked reports whether the channel is inside its cooldown window.
func (p LockoutPolicy) Locked(l Lockout) bool {
	return !l.LockUntil.IsZero() && p.now().Before(l.LockUntil)
}

// Remaining returns how long until the channel unlocks, or zero when it is
// not locked. Used only for the optional retry-after hint.
func (p LockoutPolicy) Remaining(l Lockout) time.Duration {
	if !p.Locked(l) {
		return 0
	}
	return l.LockUntil.Sub(p.now())
}

// RecordFailure increments the attempt counter and arms the cooldown window
// when the threshold is crossed. Failures while the window is already armed
// keep counting but never shorten or extend it; once the window expires the
// next failure at or above the threshold re-arms a full window from now.
func (p LockoutPolicy) RecordFailure(l *Lockout) {
	l.Attempts++
	if l.Attempts >= p.Threshold && !p.Locked(*l) {
		l.LockUntil = p.now().Add(p.Window)
	}
}

// Clear resets the channel after a successful verification.
func (p LockoutPolicy) Clear(l *Lockout) {
	*l = Lockout{}
}
