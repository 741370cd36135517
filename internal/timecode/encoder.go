package timecode

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrLeapSecond — секунда 60 допустима контрактом, но ни один стандарт её не кодирует.
	ErrLeapSecond = errors.New("timecode: leap second not supported")
	// ErrSecondRange — секунда вне [0, 60].
	ErrSecondRange = errors.New("timecode: second out of range")
)

// Encoder — общий контракт стандартов времени.
type Encoder interface {
	// Name возвращает имя стандарта (DCF77, WWVB, ...)
	Name() string
	// CarrierFrequencyHz возвращает частоту несущей стандарта.
	CarrierFrequencyHz() int
	// PrepareMinute вычисляет битовые поля для минуты t (t кратно 60 с).
	// Вызывается до ModulationForSecond; повторный вызов с тем же t ничего не меняет.
	PrepareMinute(t time.Time)
	// ModulationForSecond возвращает огибающую для секунды 0..59 подготовленной минуты.
	ModulationForSecond(second int) (Modulation, error)
}

// Names — поддерживаемые стандарты в порядке для справки.
var Names = []string{"DCF77", "WWVB", "JJY40", "JJY60", "MSF"}

// New создаёт кодер по имени стандарта (без учёта регистра).
// loc — "местное" время для стандартов, которые передают локальное время; nil = time.Local.
func New(name string, loc *time.Location) (Encoder, error) {
	if loc == nil {
		loc = time.Local
	}
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DCF77":
		return NewDCF77(loc), nil
	case "WWVB":
		return NewWWVB(loc), nil
	case "JJY40":
		return NewJJY(40000, loc), nil
	case "JJY60":
		return NewJJY(60000, loc), nil
	case "MSF":
		return NewMSF(loc), nil
	default:
		return nil, fmt.Errorf("unknown time signal standard %q (one of %s)", name, strings.Join(Names, ", "))
	}
}

func checkSecond(second int) error {
	switch {
	case second == 60:
		return ErrLeapSecond
	case second < 0 || second > 60:
		return fmt.Errorf("%w: %d", ErrSecondRange, second)
	}
	return nil
}

// bitSet возвращает бит pos поля.
func bitSet(field uint64, pos int) bool {
	return field&(1<<uint(pos)) != 0
}
