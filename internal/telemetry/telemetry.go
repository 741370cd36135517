// Package telemetry — наблюдатели цикла передачи: консоль, Prometheus, MQTT.
package telemetry

import (
	"time"

	"github.com/shiwa/timecard-mini/tc-tempus/internal/scheduler"
	"github.com/shiwa/timecard-mini/tc-tempus/internal/timecode"
)

// Multi раздаёт события всем наблюдателям по порядку.
type Multi []scheduler.Observer

func (m Multi) CarrierStarted(requested, achieved float64, err error) {
	for _, o := range m {
		o.CarrierStarted(requested, achieved, err)
	}
}

func (m Multi) MinuteStarted(minuteStart, transmitTime time.Time) {
	for _, o := range m {
		o.MinuteStarted(minuteStart, transmitTime)
	}
}

func (m Multi) SecondSent(second int, mod timecode.Modulation, lateness time.Duration) {
	for _, o := range m {
		o.SecondSent(second, mod, lateness)
	}
}
