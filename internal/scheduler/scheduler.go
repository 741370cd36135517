// Package scheduler — цикл передачи: минута → секунда → сегменты огибающей,
// все ожидания до абсолютных моментов от начала минуты.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/shiwa/timecard-mini/tc-tempus/internal/carrier"
	"github.com/shiwa/timecard-mini/tc-tempus/internal/logger"
	"github.com/shiwa/timecard-mini/tc-tempus/internal/rtclock"
	"github.com/shiwa/timecard-mini/tc-tempus/internal/timecode"
)

// Observer получает события передачи. Вызывается из цикла передачи, поэтому не должен блокировать.
type Observer interface {
	CarrierStarted(requested, achieved float64, err error)
	MinuteStarted(minuteStart, transmitTime time.Time)
	SecondSent(second int, m timecode.Modulation, lateness time.Duration)
}

// Config — параметры цикла передачи.
type Config struct {
	Encoder timecode.Encoder
	Carrier carrier.Hardware
	Clock   rtclock.Clock // nil = rtclock.System
	// Offset — сдвиг передаваемого времени от границы минуты (явное -t и -z)
	Offset time.Duration
	// Minutes — сколько минут передавать; <= 0 без ограничения
	Minutes  int
	Observer Observer
}

// Scheduler — единственный владелец несущей во время передачи.
type Scheduler struct {
	enc   timecode.Encoder
	hw    carrier.Hardware
	clock rtclock.Clock
	cfg   Config
	obs   Observer
}

// New создаёт планировщик.
func New(cfg Config) *Scheduler {
	s := &Scheduler{enc: cfg.Encoder, hw: cfg.Carrier, clock: cfg.Clock, cfg: cfg, obs: cfg.Observer}
	if s.clock == nil {
		s.clock = rtclock.System{}
	}
	if s.obs == nil {
		s.obs = nopObserver{}
	}
	return s
}

// Run запускает несущую и передаёт минуты, начиная с текущей (усечённой до минуты),
// пока не истечёт счётчик или не будет отменён ctx. Несущая останавливается ровно один раз
// на любом пути выхода. Отмена проверяется перед каждой секундой и после ожидания её начала;
// начатая секунда всегда передаётся до конца.
func (s *Scheduler) Run(ctx context.Context) error {
	requested := float64(s.enc.CarrierFrequencyHz())
	achieved, err := s.hw.StartClock(requested)
	if err != nil {
		logger.Error("carrier %.0f Hz: %v (continuing without carrier)", requested, err)
	} else {
		logger.Info("%s carrier at %.3f Hz (requested %.0f Hz)", s.enc.Name(), achieved, requested)
	}
	s.obs.CarrierStarted(requested, achieved, err)
	defer func() {
		if err := s.hw.StopClock(); err != nil {
			logger.Error("stop carrier: %v", err)
		}
	}()

	minuteStart := rtclock.TruncateMinute(s.clock.Now())
	for remaining := s.cfg.Minutes; s.cfg.Minutes <= 0 || remaining > 0; remaining-- {
		if err := s.transmitMinute(ctx, minuteStart); err != nil {
			return err
		}
		minuteStart = minuteStart.Add(time.Minute)
	}
	return nil
}

func (s *Scheduler) transmitMinute(ctx context.Context, minuteStart time.Time) error {
	transmitTime := minuteStart.Add(s.cfg.Offset)
	s.enc.PrepareMinute(transmitTime)
	s.obs.MinuteStarted(minuteStart, transmitTime)

	for second := 0; second < 60; second++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		m, err := s.enc.ModulationForSecond(second)
		if err != nil {
			return fmt.Errorf("%s second %d: %w", s.enc.Name(), second, err)
		}

		secondStart := minuteStart.Add(time.Duration(second) * time.Second)
		s.clock.SleepUntil(secondStart)
		if err := ctx.Err(); err != nil {
			return err
		}
		lateness := s.clock.Now().Sub(secondStart)

		s.sendSecond(secondStart, m)
		s.obs.SecondSent(second, m, lateness)
	}
	return nil
}

// sendSecond проходит сегменты по порядку; сегмент с нулевой длительностью держится до следующей секунды.
func (s *Scheduler) sendSecond(secondStart time.Time, m timecode.Modulation) {
	target := secondStart
	for _, seg := range m {
		if err := s.hw.SetTxPower(seg.Power); err != nil {
			logger.Error("set tx power %s: %v", seg.Power, err)
		}
		if seg.Duration == 0 {
			break
		}
		target = target.Add(seg.Duration)
		s.clock.SleepUntil(target)
	}
}

type nopObserver struct{}

func (nopObserver) CarrierStarted(float64, float64, error)             {}
func (nopObserver) MinuteStarted(time.Time, time.Time)                 {}
func (nopObserver) SecondSent(int, timecode.Modulation, time.Duration) {}
