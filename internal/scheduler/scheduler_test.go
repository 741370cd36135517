package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shiwa/timecard-mini/tc-tempus/internal/timecode"
)

var minute0 = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

// fakeClock переходит к моменту пробуждения мгновенно, опаздывая на lag.
type fakeClock struct {
	now     time.Time
	lag     time.Duration
	sleeps  []time.Time
	onSleep func(t time.Time)
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) SleepUntil(t time.Time) {
	c.sleeps = append(c.sleeps, t)
	if t.After(c.now) {
		c.now = t.Add(c.lag)
	}
	if c.onSleep != nil {
		c.onSleep(t)
	}
}

type powerEvent struct {
	at    time.Time
	power timecode.CarrierPower
}

type fakeHW struct {
	clock      *fakeClock
	startErr   error
	powerErr   error
	startCalls []float64
	stopCalls  int
	stopAt     time.Time
	events     []powerEvent
}

func (h *fakeHW) Init() error { return nil }

func (h *fakeHW) StartClock(hz float64) (float64, error) {
	h.startCalls = append(h.startCalls, hz)
	if h.startErr != nil {
		return 0, h.startErr
	}
	return hz + 0.5, nil
}

func (h *fakeHW) StopClock() error {
	h.stopCalls++
	h.stopAt = h.clock.Now()
	return nil
}

func (h *fakeHW) SetTxPower(p timecode.CarrierPower) error {
	h.events = append(h.events, powerEvent{h.clock.Now(), p})
	return h.powerErr
}

func (h *fakeHW) EnableClockOutput(bool) error { return nil }

type recorder struct {
	requested, achieved float64
	carrierErr          error
	minutes             []time.Time
	transmit            []time.Time
	seconds             []int
	lateness            []time.Duration
}

func (r *recorder) CarrierStarted(requested, achieved float64, err error) {
	r.requested, r.achieved, r.carrierErr = requested, achieved, err
}

func (r *recorder) MinuteStarted(minuteStart, transmitTime time.Time) {
	r.minutes = append(r.minutes, minuteStart)
	r.transmit = append(r.transmit, transmitTime)
}

func (r *recorder) SecondSent(second int, _ timecode.Modulation, lateness time.Duration) {
	r.seconds = append(r.seconds, second)
	r.lateness = append(r.lateness, lateness)
}

// preparedEncoder запоминает время каждого PrepareMinute.
type preparedEncoder struct {
	timecode.Encoder
	prepared []time.Time
}

func (e *preparedEncoder) PrepareMinute(t time.Time) {
	e.prepared = append(e.prepared, t)
	e.Encoder.PrepareMinute(t)
}

func setup(start time.Time) (*fakeClock, *fakeHW, *recorder) {
	clk := &fakeClock{now: start}
	return clk, &fakeHW{clock: clk}, &recorder{}
}

func TestRunCountdown(t *testing.T) {
	clk, hw, rec := setup(minute0)
	enc := &preparedEncoder{Encoder: timecode.NewDCF77(time.UTC)}
	s := New(Config{Encoder: enc, Carrier: hw, Clock: clk, Offset: 90 * time.Minute, Minutes: 2, Observer: rec})

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(hw.startCalls) != 1 || hw.startCalls[0] != 77500 {
		t.Errorf("StartClock calls %v", hw.startCalls)
	}
	if rec.requested != 77500 || rec.achieved != 77500.5 || rec.carrierErr != nil {
		t.Errorf("CarrierStarted(%v, %v, %v)", rec.requested, rec.achieved, rec.carrierErr)
	}
	if hw.stopCalls != 1 {
		t.Errorf("StopClock called %d times", hw.stopCalls)
	}
	if len(rec.seconds) != 120 {
		t.Errorf("sent %d seconds, want 120", len(rec.seconds))
	}
	wantMinutes := []time.Time{minute0, minute0.Add(time.Minute)}
	for i, m := range wantMinutes {
		if i >= len(rec.minutes) || !rec.minutes[i].Equal(m) {
			t.Fatalf("minutes = %v, want %v", rec.minutes, wantMinutes)
		}
		if want := m.Add(90 * time.Minute); !enc.prepared[i].Equal(want) || !rec.transmit[i].Equal(want) {
			t.Errorf("minute %d prepared %v, want %v", i, enc.prepared[i], want)
		}
	}
}

func TestRunCancelMidRun(t *testing.T) {
	clk, hw, rec := setup(minute0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cancelAt := minute0.Add(90 * time.Second)
	clk.onSleep = func(t time.Time) {
		if !t.Before(cancelAt) {
			cancel()
		}
	}
	s := New(Config{Encoder: timecode.NewWWVB(time.UTC), Carrier: hw, Clock: clk, Minutes: 2, Observer: rec})

	err := s.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if hw.stopCalls != 1 {
		t.Errorf("StopClock called %d times", hw.stopCalls)
	}
	if hw.stopAt.After(cancelAt.Add(time.Second)) {
		t.Errorf("carrier stopped at %v, more than 1s after cancel at %v", hw.stopAt, cancelAt)
	}
	for _, ev := range hw.events {
		if !ev.at.Before(cancelAt) {
			t.Fatalf("power transition %s at %v after cancellation", ev.power, ev.at)
		}
	}
	if len(rec.seconds) != 90 {
		t.Errorf("sent %d seconds, want 90", len(rec.seconds))
	}
}

func TestRunAlreadyCancelled(t *testing.T) {
	clk, hw, _ := setup(minute0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(Config{Encoder: timecode.NewMSF(time.UTC), Carrier: hw, Clock: clk}).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v", err)
	}
	if len(hw.events) != 0 {
		t.Errorf("%d transitions after cancellation", len(hw.events))
	}
	if len(hw.startCalls) != 1 || hw.stopCalls != 1 {
		t.Errorf("start %d, stop %d", len(hw.startCalls), hw.stopCalls)
	}
}

func TestRunAbsoluteDeadlines(t *testing.T) {
	clk, hw, _ := setup(minute0)
	enc := timecode.NewDCF77(time.UTC)
	if err := New(Config{Encoder: enc, Carrier: hw, Clock: clk, Minutes: 1}).Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	enc.PrepareMinute(minute0)
	var want []time.Time
	for s := 0; s < 60; s++ {
		start := minute0.Add(time.Duration(s) * time.Second)
		want = append(want, start)
		m, _ := enc.ModulationForSecond(s)
		at := start
		for _, seg := range m {
			if seg.Duration == 0 {
				break
			}
			at = at.Add(seg.Duration)
			want = append(want, at)
		}
	}
	if len(clk.sleeps) != len(want) {
		t.Fatalf("%d sleeps, want %d", len(clk.sleeps), len(want))
	}
	for i := range want {
		if !clk.sleeps[i].Equal(want[i]) {
			t.Fatalf("sleep %d until %v, want %v", i, clk.sleeps[i], want[i])
		}
	}
	// DCF77: по два перехода в секунду (Low, High), в секунду 59 один (High).
	if len(hw.events) != 59*2+1 {
		t.Errorf("%d transitions", len(hw.events))
	}
}

func TestRunOverrunStaysAnchored(t *testing.T) {
	clk, hw, rec := setup(minute0)
	clk.lag = 300 * time.Millisecond
	if err := New(Config{Encoder: timecode.NewDCF77(time.UTC), Carrier: hw, Clock: clk, Minutes: 1, Observer: rec}).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	var secondStarts int
	for _, s := range clk.sleeps {
		if s.Sub(minute0)%time.Second == 0 {
			secondStarts++
		}
	}
	if secondStarts != 60 {
		t.Errorf("%d sleeps on whole seconds, want 60", secondStarts)
	}
	if len(rec.lateness) != 60 {
		t.Fatalf("%d seconds reported", len(rec.lateness))
	}
	// Часы стартуют ровно на границе минуты: секунда 0 не ждёт и не опаздывает.
	if rec.lateness[0] != 0 {
		t.Errorf("second 0 lateness %v, want 0", rec.lateness[0])
	}
	for i, l := range rec.lateness[1:] {
		if l != 300*time.Millisecond {
			t.Fatalf("second %d lateness %v", i+1, l)
		}
	}
}

func TestRunStartsFromTruncatedMinute(t *testing.T) {
	clk, hw, rec := setup(minute0.Add(42*time.Second + 250*time.Millisecond))
	if err := New(Config{Encoder: timecode.NewWWVB(time.UTC), Carrier: hw, Clock: clk, Minutes: 1, Observer: rec}).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(rec.minutes) != 1 || !rec.minutes[0].Equal(minute0) {
		t.Errorf("minutes = %v, want %v", rec.minutes, minute0)
	}
	if len(rec.seconds) != 60 {
		t.Errorf("sent %d seconds", len(rec.seconds))
	}
}

func TestRunContinuesOnHardwareErrors(t *testing.T) {
	clk, hw, rec := setup(minute0)
	hw.startErr = errors.New("no divider")
	hw.powerErr = errors.New("gpio busy")
	if err := New(Config{Encoder: timecode.NewMSF(time.UTC), Carrier: hw, Clock: clk, Minutes: 1, Observer: rec}).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rec.carrierErr == nil {
		t.Error("CarrierStarted did not receive the error")
	}
	if len(rec.seconds) != 60 || hw.stopCalls != 1 {
		t.Errorf("seconds %d, stop %d", len(rec.seconds), hw.stopCalls)
	}
	// MSF: секунда 0 — два сегмента, остальные — четыре.
	if len(hw.events) != 2+59*4 {
		t.Errorf("%d transitions", len(hw.events))
	}
}

func TestNewDefaults(t *testing.T) {
	s := New(Config{Encoder: timecode.NewDCF77(time.UTC), Carrier: &fakeHW{}})
	if s.clock == nil || s.obs == nil {
		t.Error("defaults not applied")
	}
}
