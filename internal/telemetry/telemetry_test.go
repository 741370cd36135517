package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/shiwa/timecard-mini/tc-tempus/internal/scheduler"
	"github.com/shiwa/timecard-mini/tc-tempus/internal/timecode"
)

var (
	minute  = time.Date(2026, 10, 18, 14, 30, 0, 0, time.UTC)
	dcfZero = timecode.Modulation{{Power: timecode.Low, Duration: 100 * time.Millisecond}, {Power: timecode.High}}
	dcfSync = timecode.Modulation{{Power: timecode.High}}
)

var (
	_ scheduler.Observer = (*Console)(nil)
	_ scheduler.Observer = (*Metrics)(nil)
	_ scheduler.Observer = (*MQTT)(nil)
	_ scheduler.Observer = Multi(nil)
)

func TestConsole_Chart(t *testing.T) {
	var buf bytes.Buffer
	c, err := NewConsole("DCF77", true, &buf)
	if err != nil {
		t.Fatal(err)
	}
	c.MinuteStarted(minute, minute.Add(time.Hour))
	c.SecondSent(0, dcfZero, 0)
	c.SecondSent(59, dcfSync, 0)

	want := "DCF77 2026-10-18 15:30:00\n00 [_#########]\n59 [##########]\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestConsole_NoChart(t *testing.T) {
	var buf bytes.Buffer
	c, err := NewConsole("WWVB", false, &buf)
	if err != nil {
		t.Fatal(err)
	}
	c.MinuteStarted(minute, minute)
	c.SecondSent(1, dcfZero, time.Millisecond)
	if buf.Len() != 0 {
		t.Errorf("unexpected chart output %q", buf.String())
	}
}

func TestMetrics(t *testing.T) {
	m := NewMetrics("MSF")
	m.CarrierStarted(60000, 60000.5, nil)
	m.MinuteStarted(minute, minute.Add(time.Minute))
	for s := 0; s < 60; s++ {
		m.SecondSent(s, dcfZero, 50*time.Microsecond)
	}

	if got := testutil.ToFloat64(m.minutes); got != 1 {
		t.Errorf("minutes = %v", got)
	}
	if got := testutil.ToFloat64(m.seconds); got != 60 {
		t.Errorf("seconds = %v", got)
	}
	if got := testutil.ToFloat64(m.carrierHz); got != 60000.5 {
		t.Errorf("carrier = %v", got)
	}
	if got := testutil.ToFloat64(m.transmitTime); got != float64(minute.Add(time.Minute).Unix()) {
		t.Errorf("transmit time = %v", got)
	}

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, mf := range families {
		if mf.GetName() != "tc_tempus_second_lateness_seconds" {
			continue
		}
		found = true
		if n := mf.GetMetric()[0].GetHistogram().GetSampleCount(); n != 60 {
			t.Errorf("lateness samples = %d", n)
		}
	}
	if !found {
		t.Error("lateness histogram not registered")
	}

	m.CarrierStarted(60000, 0, errors.New("no divider"))
	if got := testutil.ToFloat64(m.carrierHz); got != 0 {
		t.Errorf("carrier after failure = %v", got)
	}
}

func TestMQTT_StatusPerMinute(t *testing.T) {
	var topics []string
	var payloads [][]byte
	m := newMQTT("tc-tempus/status", "JJY40", func(topic string, payload []byte) {
		topics = append(topics, topic)
		payloads = append(payloads, payload)
	})

	m.CarrierStarted(40000, 40000.25, nil)
	m.MinuteStarted(minute, minute)
	m.SecondSent(0, dcfZero, 2*time.Millisecond)
	m.SecondSent(1, dcfZero, 5*time.Millisecond)
	m.MinuteStarted(minute.Add(time.Minute), minute.Add(time.Minute))

	if len(payloads) != 2 {
		t.Fatalf("published %d messages", len(payloads))
	}
	if topics[1] != "tc-tempus/status" {
		t.Errorf("topic = %s", topics[1])
	}
	var st Status
	if err := json.Unmarshal(payloads[1], &st); err != nil {
		t.Fatal(err)
	}
	if st.Standard != "JJY40" || st.CarrierHz != 40000.25 || st.Seconds != 2 || st.MaxLatenessMs != 5 {
		t.Errorf("status = %+v", st)
	}
	if !st.TransmitTime.Equal(minute.Add(time.Minute)) {
		t.Errorf("transmit time = %v", st.TransmitTime)
	}
	if !strings.Contains(string(payloads[0]), `"seconds_sent":0`) {
		t.Errorf("first status = %s", payloads[0])
	}
}

type countingObserver struct{ carrier, minutes, seconds int }

func (c *countingObserver) CarrierStarted(float64, float64, error)             { c.carrier++ }
func (c *countingObserver) MinuteStarted(time.Time, time.Time)                 { c.minutes++ }
func (c *countingObserver) SecondSent(int, timecode.Modulation, time.Duration) { c.seconds++ }

func TestMulti(t *testing.T) {
	a, b := &countingObserver{}, &countingObserver{}
	m := Multi{a, b}
	m.CarrierStarted(1, 1, nil)
	m.MinuteStarted(minute, minute)
	m.SecondSent(0, dcfSync, 0)
	m.SecondSent(1, dcfSync, 0)
	for _, c := range []*countingObserver{a, b} {
		if c.carrier != 1 || c.minutes != 1 || c.seconds != 2 {
			t.Errorf("got %+v", *c)
		}
	}
}
