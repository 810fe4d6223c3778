package eventtiming

import "time"

// Clock provides time for event timing. The default implementation uses
// system time. Tests can inject a fake clock via Logger.SetClock to
// control timing deterministically.
type Clock interface {
	Now() time.Time
}

// systemClock uses system time.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
