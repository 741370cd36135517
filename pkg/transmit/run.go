// Package transmit собирает передатчик из конфига: кодер, несущая, опорные часы,
// телеметрия и цикл передачи.
package transmit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shiwa/timecard-mini/tc-tempus/internal/carrier"
	"github.com/shiwa/timecard-mini/tc-tempus/internal/clockselect"
	"github.com/shiwa/timecard-mini/tc-tempus/internal/config"
	"github.com/shiwa/timecard-mini/tc-tempus/internal/logger"
	"github.com/shiwa/timecard-mini/tc-tempus/internal/rtclock"
	"github.com/shiwa/timecard-mini/tc-tempus/internal/scheduler"
	"github.com/shiwa/timecard-mini/tc-tempus/internal/source"
	"github.com/shiwa/timecard-mini/tc-tempus/internal/telemetry"
	"github.com/shiwa/timecard-mini/tc-tempus/internal/timecode"
)

// ErrHardware — не удалось захватить оборудование несущей.
var ErrHardware = errors.New("hardware init")

var (
	newHardware     = carrier.New
	openSources     = source.OpenAll
	setPriority     = rtclock.SetRealtimePriority
	clockResolution = rtclock.Resolution
)

// Run передаёт сигнал по cfg до отмены ctx или окончания run_minutes.
// Отмена не считается ошибкой.
func Run(ctx context.Context, cfg *config.Config) error {
	return run(ctx, cfg, os.Stdout)
}

func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	tx := cfg.Transmitter
	logger.Verbose = logger.Verbose || tx.Verbose || tx.DryRun

	enc, err := timecode.New(tx.Standard, time.Local)
	if err != nil {
		return err
	}

	var clock rtclock.Clock = rtclock.System{}
	var hw carrier.Hardware
	minutes := tx.RunMinutes
	if tx.DryRun {
		clock = rtclock.NewInstant(time.Now())
		hw = &carrier.Null{}
		if minutes <= 0 {
			minutes = 1
		}
	} else {
		if hw, err = newHardware(cfg.Hardware); err != nil {
			return err
		}
	}
	if c, ok := hw.(io.Closer); ok {
		defer c.Close()
	}
	if err := hw.Init(); err != nil {
		return fmt.Errorf("%w (%s): %v", ErrHardware, cfg.Hardware.Backend, err)
	}

	if !tx.DryRun {
		if err := setPriority(tx.RealtimePriority); err != nil {
			logger.Error("realtime priority %d: %v", tx.RealtimePriority, err)
		}
		checkClock(clockResolution)
		clock = checkReference(cfg.Reference, clock)
	}

	offset, err := TransmitOffset(tx, clock.Now(), time.Local)
	if err != nil {
		return err
	}
	if offset != 0 {
		logger.Info("transmitted time offset %v", offset)
	}

	obs, closeObs, err := observers(ctx, cfg, enc.Name(), out)
	if err != nil {
		return err
	}
	defer closeObs()

	logger.Info("%s on %s backend, %d minute(s) (0 = unlimited)", enc.Name(), cfg.Hardware.Backend, minutes)
	err = scheduler.New(scheduler.Config{
		Encoder:  enc,
		Carrier:  hw,
		Clock:    clock,
		Offset:   offset,
		Minutes:  minutes,
		Observer: obs,
	}).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// checkClock предупреждает, если часы не различают миллисекундные сегменты огибающей.
func checkClock(resolution func() (time.Duration, error)) error {
	res, err := resolution()
	if err != nil {
		logger.Debug("clock resolution: %v", err)
		return nil
	}
	if err := rtclock.CheckResolution(res); err != nil {
		logger.Error("%v: segment edges will be quantized", err)
		return err
	}
	logger.Debug("clock resolution %v", res)
	return nil
}

// TransmitOffset — сдвиг передаваемого времени от текущей минуты: явное время (-t)
// относительно now, усечённого до минуты, плюс zone_offset_minutes.
func TransmitOffset(tx config.TransmitterConfig, now time.Time, loc *time.Location) (time.Duration, error) {
	var offset time.Duration
	if tx.Time != "" {
		t, err := config.ParseLocalTime(tx.Time, loc)
		if err != nil {
			return 0, err
		}
		offset = t.Sub(rtclock.TruncateMinute(now))
	}
	return offset + time.Duration(tx.ZoneOffsetMinutes)*time.Minute, nil
}

// checkReference сравнивает clock с опорными источниками. При correct и успешном
// измерении возвращает часы, сдвинутые на измеренное смещение.
func checkReference(ref *config.ReferenceConfig, clock rtclock.Clock) rtclock.Clock {
	if ref == nil {
		return clock
	}
	primary, errs := openSources(ref.PrimaryClocks)
	secondary, errs2 := openSources(ref.SecondaryClocks)
	for _, err := range append(errs, errs2...) {
		logger.Error("reference: %v", err)
	}
	defer source.CloseAll(primary)
	defer source.CloseAll(secondary)

	e := clockselect.NewElection(primary, secondary)
	m, err := e.Measure()
	if err != nil {
		logger.Error("reference: %v", err)
		return clock
	}
	logger.Info("reference %s (%s): offset %v", m.Source, m.Protocol, m.Offset)

	limit, _ := ref.MaxOffsetDuration()
	if m.Exceeds(limit) {
		logger.Error("reference: system clock off by %v (max %v)", m.Offset, limit)
	}
	if ref.Correct {
		logger.Info("reference: correcting schedule by %v", m.Offset)
		return rtclock.Offset{Base: clock, D: m.Offset}
	}
	return clock
}

func observers(ctx context.Context, cfg *config.Config, standard string, out io.Writer) (scheduler.Observer, func(), error) {
	console, err := telemetry.NewConsole(standard, cfg.Transmitter.DryRun, out)
	if err != nil {
		return nil, nil, err
	}
	obs := telemetry.Multi{console}
	closers := []func(){}

	if cfg.Metrics.Listen != "" {
		m := telemetry.NewMetrics(standard)
		m.Serve(ctx, cfg.Metrics.Listen)
		obs = append(obs, m)
	}
	if cfg.MQTT.Broker != "" {
		m, err := telemetry.NewMQTT(cfg.MQTT, standard)
		if err != nil {
			logger.Error("%v (status publishing disabled)", err)
		} else {
			obs = append(obs, m)
			closers = append(closers, m.Close)
		}
	}
	return obs, func() {
		for _, c := range closers {
			c()
		}
	}, nil
}
