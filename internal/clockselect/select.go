// Package clockselect — выбор опорного источника (primary → secondary) и измерение
// смещения системных часов относительно него.
package clockselect

import (
	"errors"
	"time"

	"github.com/shiwa/timecard-mini/tc-tempus/internal/source"
)

// ErrNoSource — ни один источник не дал пригодного времени.
var ErrNoSource = errors.New("no usable reference clock")

// Measurement — одно сравнение часов с опорным источником.
type Measurement struct {
	Source    string
	Protocol  string
	Reference time.Time
	Local     time.Time
	// Offset = Reference - Local: насколько системные часы отстают от опорных
	Offset time.Duration
}

// Election — выбор активного источника: сначала primary, при недоступности — secondary
type Election struct {
	primary   []source.TimeSource
	secondary []source.TimeSource
	active    source.TimeSource
	now       func() time.Time
}

// NewElection создаёт выборщик из списков primary и secondary
func NewElection(primary, secondary []source.TimeSource) *Election {
	return &Election{primary: primary, secondary: secondary, now: time.Now}
}

// Measure опрашивает источники по приоритету и возвращает смещение по первому пригодному.
// Локальное время берётся сразу после ответа источника.
func (e *Election) Measure() (Measurement, error) {
	e.active = nil
	for _, group := range [][]source.TimeSource{e.primary, e.secondary} {
		for _, s := range group {
			ref, st := s.GetTime()
			local := e.now()
			if !st.IsUsable() {
				continue
			}
			e.active = s
			return Measurement{
				Source:    s.Name(),
				Protocol:  s.Protocol(),
				Reference: ref,
				Local:     local,
				Offset:    ref.Sub(local),
			}, nil
		}
	}
	return Measurement{}, ErrNoSource
}

// Active возвращает источник последнего успешного Measure
func (e *Election) Active() source.TimeSource {
	return e.active
}

// Exceeds сообщает, превышает ли |Offset| порог limit; limit <= 0 — порога нет.
func (m Measurement) Exceeds(limit time.Duration) bool {
	if limit <= 0 {
		return false
	}
	d := m.Offset
	if d < 0 {
		d = -d
	}
	return d > limit
}
