package source

import (
	"fmt"

	"github.com/shiwa/timecard-mini/tc-tempus/internal/config"
)

const (
	defaultDevice = "/dev/ttyS0"
	defaultBaud   = 9600
)

// NewFromClockSource создаёт TimeSource из конфига (reference.primary_clocks / secondary_clocks)
func NewFromClockSource(c config.ClockSource) (TimeSource, error) {
	if c.Disable {
		return nil, fmt.Errorf("source disabled")
	}
	dev, baud := c.Device, c.Baud
	if dev == "" {
		dev = defaultDevice
	}
	if baud == 0 {
		baud = defaultBaud
	}
	switch c.Protocol {
	case "gnss", "ubx":
		return NewGNSS(dev, baud)
	case "nmea":
		return NewNMEA(dev, baud, c.Offset)
	case "ntp":
		if c.IP == "" {
			return nil, fmt.Errorf("ntp: ip required")
		}
		return NewNTP(c.IP, 0), nil
	default:
		return nil, fmt.Errorf("unknown protocol: %s", c.Protocol)
	}
}

// OpenAll создаёт источники из списка, пропуская выключенные и неоткрывшиеся;
// ошибки возвращаются отдельно для логирования.
func OpenAll(list []config.ClockSource) ([]TimeSource, []error) {
	var out []TimeSource
	var errs []error
	for _, c := range list {
		if c.Disable {
			continue
		}
		s, err := NewFromClockSource(c)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Protocol, err))
			continue
		}
		out = append(out, s)
	}
	return out, errs
}

// CloseAll закрывает все источники.
func CloseAll(list []TimeSource) {
	for _, s := range list {
		_ = s.Close()
	}
}
