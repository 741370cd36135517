package carrier

import (
	"fmt"

	"github.com/shiwa/timecard-mini/tc-tempus/internal/config"
	"github.com/shiwa/timecard-mini/tc-tempus/internal/timecode"
	"go.bug.st/serial"
)

// modemLines — управляющие линии последовательного порта.
type modemLines interface {
	SetDTR(dtr bool) error
	SetRTS(rts bool) error
	Close() error
}

// Serial — внешний генератор, настроенный на частоту стандарта: DTR открывает его выход,
// RTS включает аттенюатор.
type Serial struct {
	cfg  config.SerialConfig
	open func(device string) (modemLines, error)
	port modemLines
}

// NewSerial создаёт бэкенд с управлением через линии порта.
func NewSerial(cfg config.SerialConfig) *Serial {
	return &Serial{cfg: cfg, open: openModemLines}
}

func openModemLines(device string) (modemLines, error) {
	return serial.Open(device, &serial.Mode{BaudRate: 9600})
}

func (s *Serial) Init() error {
	p, err := s.open(s.cfg.Device)
	if err != nil {
		return fmt.Errorf("serial: open %s: %w", s.cfg.Device, err)
	}
	s.port = p
	err = p.SetRTS(false)
	if err != nil {
		err = fmt.Errorf("serial: rts: %w", err)
	} else {
		err = s.EnableClockOutput(false)
	}
	if err != nil {
		_ = s.Close()
		return err
	}
	return nil
}

// StartClock открывает выход генератора. Частоту задаёт сам генератор:
// возвращается oscillator_hz, если он указан, иначе запрошенная.
func (s *Serial) StartClock(hz float64) (float64, error) {
	if s.port == nil {
		return 0, ErrNotInitialized
	}
	if err := s.EnableClockOutput(true); err != nil {
		return 0, err
	}
	if s.cfg.OscillatorHz > 0 {
		return s.cfg.OscillatorHz, nil
	}
	return hz, nil
}

func (s *Serial) StopClock() error {
	if s.port == nil {
		return nil
	}
	return s.EnableClockOutput(false)
}

func (s *Serial) SetTxPower(p timecode.CarrierPower) error {
	if s.port == nil {
		return ErrNotInitialized
	}
	switch p {
	case timecode.Off:
		return s.EnableClockOutput(false)
	case timecode.Low, timecode.High:
		if err := s.port.SetRTS(p == timecode.Low); err != nil {
			return fmt.Errorf("serial: rts: %w", err)
		}
		return s.EnableClockOutput(true)
	default:
		return fmt.Errorf("serial: unknown carrier power %d", p)
	}
}

func (s *Serial) EnableClockOutput(enable bool) error {
	if s.port == nil {
		return ErrNotInitialized
	}
	if err := s.port.SetDTR(enable); err != nil {
		return fmt.Errorf("serial: dtr: %w", err)
	}
	return nil
}

// Close освобождает порт.
func (s *Serial) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}
