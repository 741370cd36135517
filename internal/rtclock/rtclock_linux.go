//go:build linux

package rtclock

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// sleepUntil спит до абсолютного момента по CLOCK_REALTIME (clock_nanosleep, TIMER_ABSTIME),
// так что коррекция системного времени во время сна учитывается ядром.
func sleepUntil(t time.Time) {
	ts := unix.NsecToTimespec(t.UnixNano())
	for {
		err := unix.ClockNanosleep(unix.CLOCK_REALTIME, unix.TIMER_ABSTIME, &ts, nil)
		if !errors.Is(err, unix.EINTR) {
			return
		}
	}
}

// SetRealtimePriority переводит процесс в SCHED_FIFO с приоритетом prio.
// Требует CAP_SYS_NICE или root.
func SetRealtimePriority(prio int) error {
	attr := &unix.SchedAttr{
		Size:     unix.SizeofSchedAttr,
		Policy:   unix.SCHED_FIFO,
		Priority: uint32(prio),
	}
	if err := unix.SchedSetAttr(0, attr, 0); err != nil {
		return fmt.Errorf("sched_setattr SCHED_FIFO %d: %w", prio, err)
	}
	return nil
}

// Resolution — разрешение CLOCK_REALTIME по clock_getres.
func Resolution() (time.Duration, error) {
	var ts unix.Timespec
	if err := unix.ClockGetres(unix.CLOCK_REALTIME, &ts); err != nil {
		return 0, fmt.Errorf("clock_getres: %w", err)
	}
	return time.Duration(ts.Nano()), nil
}
