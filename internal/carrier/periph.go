package carrier

import (
	"fmt"

	"github.com/shiwa/timecard-mini/tc-tempus/internal/config"
	"github.com/shiwa/timecard-mini/tc-tempus/internal/timecode"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// pwmPin — пин несущей: PWM 50 % на частоте стандарта или постоянный уровень.
type pwmPin interface {
	Out(l gpio.Level) error
	PWM(duty gpio.Duty, f physic.Frequency) error
}

// attenuatorPin — пин ослабления: выход или высокоимпедансный вход.
type attenuatorPin interface {
	Out(l gpio.Level) error
	In(pull gpio.Pull, edge gpio.Edge) error
}

// Periph — несущая через драйверы periph.io (Raspberry Pi, Jetson, Allwinner и др.).
type Periph struct {
	cfg      config.PeriphConfig
	hostInit func() error
	lookup   func(carrier, attenuation string) (pwmPin, attenuatorPin, error)

	carrier pwmPin
	atten   attenuatorPin
	freq    physic.Frequency
	output  bool
}

// NewPeriph создаёт бэкенд periph.io.
func NewPeriph(cfg config.PeriphConfig) *Periph {
	return &Periph{
		cfg: cfg,
		hostInit: func() error {
			_, err := host.Init()
			return err
		},
		lookup: lookupPins,
	}
}

func lookupPins(carrier, attenuation string) (pwmPin, attenuatorPin, error) {
	c := gpioreg.ByName(carrier)
	if c == nil {
		return nil, nil, fmt.Errorf("carrier pin %q not found", carrier)
	}
	a := gpioreg.ByName(attenuation)
	if a == nil {
		return nil, nil, fmt.Errorf("attenuation pin %q not found", attenuation)
	}
	return c, a, nil
}

func (p *Periph) Init() error {
	if err := p.hostInit(); err != nil {
		return fmt.Errorf("periph: host init: %w", err)
	}
	c, a, err := p.lookup(p.cfg.CarrierPin, p.cfg.AttenuationPin)
	if err != nil {
		return fmt.Errorf("periph: %w", err)
	}
	p.carrier, p.atten = c, a
	return p.carrier.Out(gpio.Low)
}

// StartClock запускает PWM 50 %; periph не сообщает фактическую частоту,
// поэтому возвращается запрошенная с точностью physic.Frequency.
func (p *Periph) StartClock(hz float64) (float64, error) {
	if p.carrier == nil {
		return 0, ErrNotInitialized
	}
	if !(hz > 0) {
		return 0, fmt.Errorf("periph: invalid frequency %v", hz)
	}
	p.freq = physic.Frequency(hz * float64(physic.Hertz))
	if err := p.EnableClockOutput(true); err != nil {
		return 0, err
	}
	return float64(p.freq) / float64(physic.Hertz), nil
}

func (p *Periph) StopClock() error {
	if p.carrier == nil {
		return nil
	}
	err := p.EnableClockOutput(false)
	p.freq = 0
	return err
}

func (p *Periph) SetTxPower(pw timecode.CarrierPower) error {
	if p.atten == nil {
		return ErrNotInitialized
	}
	switch pw {
	case timecode.Off:
		return p.EnableClockOutput(false)
	case timecode.Low:
		if err := p.atten.Out(p.attenuateLevel()); err != nil {
			return fmt.Errorf("periph: attenuate: %w", err)
		}
	case timecode.High:
		var err error
		if p.cfg.AttenuationActiveHigh {
			err = p.atten.Out(gpio.Low)
		} else {
			err = p.atten.In(gpio.PullNoChange, gpio.NoEdge)
		}
		if err != nil {
			return fmt.Errorf("periph: release attenuator: %w", err)
		}
	default:
		return fmt.Errorf("periph: unknown carrier power %d", pw)
	}
	if !p.output {
		return p.EnableClockOutput(true)
	}
	return nil
}

func (p *Periph) EnableClockOutput(enable bool) error {
	if p.carrier == nil {
		return ErrNotInitialized
	}
	if enable {
		if p.freq == 0 {
			return fmt.Errorf("periph: clock not started")
		}
		if err := p.carrier.PWM(gpio.DutyHalf, p.freq); err != nil {
			return fmt.Errorf("periph: pwm %s: %w", p.freq, err)
		}
	} else if err := p.carrier.Out(gpio.Low); err != nil {
		return fmt.Errorf("periph: carrier off: %w", err)
	}
	p.output = enable
	return nil
}

func (p *Periph) attenuateLevel() gpio.Level {
	if p.cfg.AttenuationActiveHigh {
		return gpio.High
	}
	return gpio.Low
}
