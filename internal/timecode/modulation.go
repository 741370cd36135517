// Package timecode — кодеры сигналов точного времени (DCF77, WWVB, JJY, MSF):
// минута → битовое поле → огибающая модуляции для каждой секунды.
package timecode

import (
	"strings"
	"time"
)

// CarrierPower — мгновенная мощность несущей.
// Какой уровень кодирует "1", решает кодер конкретного стандарта.
type CarrierPower int

const (
	Off  CarrierPower = iota // несущая выключена (MSF)
	Low                      // ослабленная несущая
	High                     // полная мощность
)

func (p CarrierPower) String() string {
	switch p {
	case Off:
		return "off"
	case Low:
		return "low"
	case High:
		return "high"
	default:
		return "unknown"
	}
}

// Segment — участок огибающей: уровень и длительность.
// Duration == 0 означает "держать уровень до начала следующей секунды".
type Segment struct {
	Power    CarrierPower
	Duration time.Duration
}

// Modulation — огибающая одной секунды, читается слева направо.
// Сумма длительностей не превышает секунды, последний сегмент обычно с Duration 0.
type Modulation []Segment

// Total возвращает сумму явно заданных длительностей.
func (m Modulation) Total() time.Duration {
	var d time.Duration
	for _, s := range m {
		d += s.Duration
	}
	return d
}

// Valid проверяет инвариант огибающей: неотрицательные длительности, сумма ≤ 1 с.
func (m Modulation) Valid() bool {
	if len(m) == 0 {
		return false
	}
	for _, s := range m {
		if s.Duration < 0 {
			return false
		}
	}
	return m.Total() <= time.Second
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

const chartStep = 100 * time.Millisecond

// Chart рисует секунду как ASCII-полосу: один символ на 100 мс,
// '#' — полная мощность, '_' — ослабление или пауза.
func Chart(m Modulation) string {
	var b strings.Builder
	b.WriteByte('[')
	var running, target time.Duration
	high := false
	for _, s := range m {
		high = s.Power == High
		target += s.Duration
		for ; running < target; running += chartStep {
			b.WriteByte(level(high))
		}
	}
	for ; running < time.Second; running += chartStep {
		b.WriteByte(level(high))
	}
	b.WriteByte(']')
	return b.String()
}

func level(high bool) byte {
	if high {
		return '#'
	}
	return '_'
}
