package source

import (
	"fmt"
	"time"

	"github.com/shiwa/timecard-mini/tc-tempus/internal/logger"
	"github.com/shiwa/timecard-mini/tc-tempus/internal/ubx"
)

const (
	gnssPollTimeout = 1500 * time.Millisecond
	// gnssEpochLimit — сколько ждать смены эпохи при навигации 1 Гц и медленнее.
	gnssEpochLimit = 2500 * time.Millisecond
)

// epochPoller — опрос NAV-TIMEUTC с привязкой к смене эпохи (ubx.Port).
type epochPoller interface {
	EpochTimeUTC(pollTimeout, limit time.Duration) (ubx.Epoch, error)
	Close() error
}

// GNSS — источник времени по приёмнику u-blox: опрос UBX-NAV-TIMEUTC.
type GNSS struct {
	port   epochPoller
	device string
	now    func() time.Time
}

// NewGNSS открывает последовательный порт приёмника
func NewGNSS(device string, baud int) (*GNSS, error) {
	port, err := ubx.Open(device, baud)
	if err != nil {
		return nil, err
	}
	return &GNSS{port: port, device: device, now: time.Now}, nil
}

// Name возвращает имя источника
func (g *GNSS) Name() string {
	return fmt.Sprintf("gnss:%s", g.device)
}

// Protocol возвращает протокол
func (g *GNSS) Protocol() string {
	return "gnss"
}

// GetTime ждёт смены эпохи навигации и возвращает время приёмника, пересчитанное
// на момент возврата. Погрешность определяется интервалом опроса вокруг смены эпохи.
func (g *GNSS) GetTime() (time.Time, Status) {
	ep, err := g.port.EpochTimeUTC(gnssPollTimeout, gnssEpochLimit)
	if err != nil {
		logger.Debug("%s: %v", g.Name(), err)
		return time.Time{}, StatusUnavailable
	}
	if !ep.Valid {
		return ep.Time, StatusUnlocked
	}
	logger.Debug("%s: epoch %s ±%v", g.Name(), ep.Time.Format(time.RFC3339Nano), ep.Uncertainty)
	return ep.Time.Add(g.now().Sub(ep.Local)), StatusLocked
}

// Close закрывает порт
func (g *GNSS) Close() error {
	if g.port == nil {
		return nil
	}
	return g.port.Close()
}
