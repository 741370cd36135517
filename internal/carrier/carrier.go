// Package carrier — аппаратный интерфейс несущей: запуск генератора на частоте стандарта
// и переключение мощности передачи. Бэкенд выбирается конфигом при старте.
package carrier

import (
	"errors"
	"fmt"

	"github.com/shiwa/timecard-mini/tc-tempus/internal/config"
	"github.com/shiwa/timecard-mini/tc-tempus/internal/timecode"
)

// Hardware — управление несущей. Используется только циклом передачи.
type Hardware interface {
	// Init захватывает оборудование (нужны права root или доступ к устройству).
	Init() error
	// StartClock запускает генерацию на ближайшей достижимой частоте и возвращает её.
	StartClock(hz float64) (float64, error)
	// StopClock останавливает генерацию; безопасно вызывать повторно и до StartClock.
	StopClock() error
	// SetTxPower задаёт мгновенную мощность несущей.
	SetTxPower(p timecode.CarrierPower) error
	// EnableClockOutput подключает или отключает выход генератора.
	EnableClockOutput(enable bool) error
}

// ErrNotInitialized — метод вызван до успешного Init.
var ErrNotInitialized = errors.New("carrier: hardware not initialized")

// New создаёт бэкенд по hardware.backend.
func New(cfg config.HardwareConfig) (Hardware, error) {
	switch cfg.Backend {
	case "rpi":
		return NewRPi(cfg.RPi), nil
	case "periph":
		return NewPeriph(cfg.Periph), nil
	case "serial":
		return NewSerial(cfg.Serial), nil
	case "null":
		return &Null{}, nil
	default:
		return nil, fmt.Errorf("unknown hardware backend: %s", cfg.Backend)
	}
}
