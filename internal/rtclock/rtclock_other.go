//go:build !linux

package rtclock

import (
	"errors"
	"time"
)

func sleepUntil(t time.Time) {
	if d := time.Until(t); d > 0 {
		time.Sleep(d)
	}
}

// SetRealtimePriority — на не-Linux не поддерживается.
func SetRealtimePriority(prio int) error {
	_ = prio
	return errors.New("realtime priority is supported on linux only")
}

// Resolution — на не-Linux неизвестно.
func Resolution() (time.Duration, error) {
	return 0, errors.New("clock resolution is known on linux only")
}
