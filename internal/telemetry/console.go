package telemetry

import (
	"fmt"
	"io"
	"time"

	"github.com/lestrrat-go/strftime"

	"github.com/shiwa/timecard-mini/tc-tempus/internal/logger"
	"github.com/shiwa/timecard-mini/tc-tempus/internal/timecode"
)

// TimeFormat — формат передаваемого времени в логах.
const TimeFormat = "%Y-%m-%d %H:%M:%S"

// Console печатает ход передачи. С Chart каждая секунда выводится строкой
// с диаграммой огибающей в w (режим dry run).
type Console struct {
	standard string
	chart    bool
	w        io.Writer
	format   *strftime.Strftime
}

// NewConsole создаёт консольный наблюдатель для стандарта standard.
func NewConsole(standard string, chart bool, w io.Writer) (*Console, error) {
	f, err := strftime.New(TimeFormat)
	if err != nil {
		return nil, fmt.Errorf("time format: %w", err)
	}
	return &Console{standard: standard, chart: chart, w: w, format: f}, nil
}

func (c *Console) CarrierStarted(requested, achieved float64, err error) {
	if err == nil {
		logger.Debug("carrier error %+.4f Hz", achieved-requested)
	}
}

func (c *Console) MinuteStarted(minuteStart, transmitTime time.Time) {
	logger.Info("%s: %s", c.standard, c.format.FormatString(transmitTime))
	if c.chart {
		fmt.Fprintf(c.w, "%s %s\n", c.standard, c.format.FormatString(transmitTime))
	}
}

func (c *Console) SecondSent(second int, m timecode.Modulation, lateness time.Duration) {
	if c.chart {
		fmt.Fprintf(c.w, "%02d %s\n", second, timecode.Chart(m))
		return
	}
	logger.Debug("second %02d %s late %v", second, timecode.Chart(m), lateness)
}
