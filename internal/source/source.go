// Package source — опорные источники времени для проверки системных часов перед передачей.
package source

import "time"

// TimeSource — опорный источник времени (GNSS, NMEA, NTP).
type TimeSource interface {
	// Name возвращает имя источника для логов
	Name() string
	// Protocol возвращает протокол: gnss, nmea, ntp
	Protocol() string
	// GetTime возвращает текущее время по источнику и статус
	GetTime() (time.Time, Status)
	// Close освобождает ресурсы
	Close() error
}

// Status — состояние источника.
type Status int

const (
	StatusUnavailable Status = iota
	StatusUnlocked    // есть данные, но без валидного решения (например GNSS без fix)
	StatusLocked      // источник пригоден для сравнения
)

func (s Status) String() string {
	switch s {
	case StatusUnavailable:
		return "unavailable"
	case StatusUnlocked:
		return "unlocked"
	case StatusLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// IsUsable возвращает true, если по источнику можно измерять смещение часов
func (s Status) IsUsable() bool {
	return s == StatusLocked
}
