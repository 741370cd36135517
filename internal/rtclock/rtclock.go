// Package rtclock — часы планировщика: текущее время и сон до абсолютного момента.
package rtclock

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// SegmentStep — шаг длительностей сегментов огибающей.
const SegmentStep = time.Millisecond

// ErrCoarseClock — часы не различают моменты с шагом SegmentStep.
var ErrCoarseClock = errors.New("clock resolution coarser than segment step")

// CheckResolution сравнивает разрешение часов с шагом сегментов.
func CheckResolution(res time.Duration) error {
	if res <= 0 || res > SegmentStep {
		return fmt.Errorf("%w: %v > %v", ErrCoarseClock, res, SegmentStep)
	}
	return nil
}

// Clock — источник времени для планировщика передачи.
// SleepUntil блокирует до момента t; если t уже прошло, возвращается сразу.
type Clock interface {
	Now() time.Time
	SleepUntil(t time.Time)
}

// System — системные часы CLOCK_REALTIME.
type System struct{}

func (System) Now() time.Time { return time.Now() }

func (System) SleepUntil(t time.Time) { sleepUntil(t) }

// Offset сдвигает базовые часы на D: Now() = base.Now() + D.
// Используется, когда опорный источник времени расходится с системным.
type Offset struct {
	Base Clock
	D    time.Duration
}

func (o Offset) Now() time.Time { return o.Base.Now().Add(o.D) }

func (o Offset) SleepUntil(t time.Time) { o.Base.SleepUntil(t.Add(-o.D)) }

// Instant — часы пробного прогона: не ждут, а только сдвигают текущее время вперёд.
type Instant struct {
	mu  sync.Mutex
	now time.Time
}

// NewInstant создаёт часы, стартующие с момента start.
func NewInstant(start time.Time) *Instant {
	return &Instant{now: start}
}

func (c *Instant) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Instant) SleepUntil(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.now) {
		c.now = t
	}
}

// TruncateMinute отбрасывает секунды и доли секунды (границы минут считаются в UTC,
// для зон со сдвигом, кратным минуте, это то же самое).
func TruncateMinute(t time.Time) time.Time {
	return t.Truncate(time.Minute)
}
