package auth

import "time"

// FailureDelay is the uniform artificial pause applied to every failed
// verification, including lookups of nonexistent accounts, so response
// timing cannot distinguish the failure cause. The sleep is deliberately
// not cancellable and runs after the failure's state mutations have been
// committed.
type FailureDelay struct {
	D     time.Duration
	Sleep func(time.Duration) // defaults to time.Sleep; tests inject a recorder
}

func (f FailureDelay) Apply() {
	if f.D <= 0 {
		return
	}
	if f.Sleep != nil {
		f.Sleep(f.D)
		return
	}
	time.Sleep(f.D)
}
