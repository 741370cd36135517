package carrier

import (
	"fmt"
	"time"

	"github.com/shiwa/timecard-mini/tc-tempus/internal/config"
	"github.com/shiwa/timecard-mini/tc-tempus/internal/logger"
	"github.com/shiwa/timecard-mini/tc-tempus/internal/synth"
	"github.com/shiwa/timecard-mini/tc-tempus/internal/timecode"
)

// Смещения блоков от базы периферии и регистры (в 32-битных словах).
const (
	gpioBlockOffset  = 0x200000
	clockBlockOffset = 0x101000
	blockSize        = 4096

	gpioClrWord = 0x28 / 4

	clkGP0Ctl = 28
	clkGP0Div = 29

	clkPasswd   = 0x5A << 24
	clkCtlBusy  = 1 << 7
	clkCtlKill  = 1 << 5
	clkCtlEnab  = 1 << 4
	clkCtlMash1 = 1 << 9

	carrierGPIO  = 4 // GPCLK0 в ALT0
	maxGPIO      = 27
	busyPolls    = 1000
	busyPollStep = 10 * time.Microsecond
)

// registers — окно 32-битных регистров (mmap на Linux, срез в тестах).
type registers interface {
	Load(word int) uint32
	Store(word int, v uint32)
}

// RPi — несущая от менеджера тактирования GPCLK0 на GPIO4, ослабление через
// подтяжку средней точки делителя на attenuation GPIO к земле.
type RPi struct {
	attenuation int
	mapper      func() (gpio, clock registers, err error)
	gpio        registers
	clock       registers
}

// NewRPi создаёт бэкенд прямого доступа к регистрам.
func NewRPi(cfg config.RPiConfig) *RPi {
	return &RPi{attenuation: cfg.AttenuationGPIO, mapper: mapBCMRegisters}
}

func (r *RPi) Init() error {
	if r.attenuation < 0 || r.attenuation > maxGPIO || r.attenuation == carrierGPIO {
		return fmt.Errorf("rpi: invalid attenuation gpio %d", r.attenuation)
	}
	gpio, clock, err := r.mapper()
	if err != nil {
		return fmt.Errorf("rpi: %w", err)
	}
	r.gpio, r.clock = gpio, clock
	return nil
}

// StartClock выбирает источник и делитель (MASH 1) и включает GPCLK0.
func (r *RPi) StartClock(hz float64) (float64, error) {
	if r.clock == nil {
		return 0, ErrNotInitialized
	}
	d, err := synth.BestDivider(hz, synth.BCM283xSources)
	if err != nil {
		return 0, err
	}
	if err := r.StopClock(); err != nil {
		return 0, err
	}
	r.clock.Store(clkGP0Div, clkPasswd|uint32(d.DivI)<<12|uint32(d.DivF))
	time.Sleep(busyPollStep)
	r.clock.Store(clkGP0Ctl, clkPasswd|clkCtlMash1|d.Source.ID)
	time.Sleep(busyPollStep)
	r.clock.Store(clkGP0Ctl, r.clock.Load(clkGP0Ctl)|clkPasswd|clkCtlEnab)

	logger.Debug("rpi: clock source %s %.0f Hz / %.4f = %.4f Hz", d.Source.Name, d.Source.Hz, d.Divisor(), d.Hz)
	return d.Hz, r.EnableClockOutput(true)
}

// StopClock гасит генератор и ждёт сброса BUSY (ограниченное число опросов).
func (r *RPi) StopClock() error {
	if r.clock == nil {
		return nil
	}
	r.clock.Store(clkGP0Ctl, clkPasswd|clkCtlKill)
	busy := true
	for i := 0; i < busyPolls; i++ {
		if r.clock.Load(clkGP0Ctl)&clkCtlBusy == 0 {
			busy = false
			break
		}
		time.Sleep(busyPollStep)
	}
	if err := r.EnableClockOutput(false); err != nil {
		return err
	}
	if busy {
		return fmt.Errorf("rpi: clock generator still busy after %d polls", busyPolls)
	}
	return nil
}

func (r *RPi) SetTxPower(p timecode.CarrierPower) error {
	if r.gpio == nil {
		return ErrNotInitialized
	}
	switch p {
	case timecode.Off:
		return r.EnableClockOutput(false)
	case timecode.Low:
		r.setOutput(r.attenuation)
		r.gpio.Store(gpioClrWord, 1<<uint(r.attenuation))
		return r.EnableClockOutput(true)
	case timecode.High:
		r.setInput(r.attenuation) // high-Z
		return r.EnableClockOutput(true)
	default:
		return fmt.Errorf("rpi: unknown carrier power %d", p)
	}
}

// EnableClockOutput переключает GPIO4 между ALT0 (выход GPCLK0) и входом.
func (r *RPi) EnableClockOutput(enable bool) error {
	if r.gpio == nil {
		return ErrNotInitialized
	}
	if enable {
		r.setFunction(carrierGPIO, 4)
	} else {
		r.setInput(carrierGPIO)
	}
	return nil
}

func (r *RPi) setInput(pin int)  { r.setFunction(pin, 0) }
func (r *RPi) setOutput(pin int) { r.setFunction(pin, 1) }

// setFunction пишет 3-битное поле FSEL пина (0 — вход, 1 — выход, 4 — ALT0).
func (r *RPi) setFunction(pin int, fn uint32) {
	word := pin / 10
	shift := uint(pin%10) * 3
	v := r.gpio.Load(word)
	v &^= 7 << shift
	v |= fn << shift
	r.gpio.Store(word, v)
}
