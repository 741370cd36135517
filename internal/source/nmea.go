package source

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tarm/serial"
)

// NMEA read timeout
const nmeaReadTimeout = 2 * time.Second

// NMEA — источник времени по NMEA RMC (GPRMC/GNRMC) с последовательного порта.
type NMEA struct {
	port   io.ReadCloser
	lines  *bufio.Reader
	device string
	offset time.Duration // статическое смещение (задержка выдачи RMC приёмником)
}

// NewNMEA открывает порт через tarm/serial.
func NewNMEA(device string, baud int, offsetNs int64) (*NMEA, error) {
	port, err := serial.OpenPort(&serial.Config{Name: device, Baud: baud, ReadTimeout: nmeaReadTimeout})
	if err != nil {
		return nil, fmt.Errorf("nmea open %s: %w", device, err)
	}
	return newNMEA(port, device, time.Duration(offsetNs)), nil
}

func newNMEA(port io.ReadCloser, device string, offset time.Duration) *NMEA {
	return &NMEA{port: port, lines: bufio.NewReader(port), device: device, offset: offset}
}

// Name возвращает имя источника
func (n *NMEA) Name() string {
	return fmt.Sprintf("nmea:%s", n.device)
}

// Protocol возвращает протокол
func (n *NMEA) Protocol() string {
	return "nmea"
}

// GetTime ждёт следующую RMC и возвращает её время плюс offset.
// RMC со статусом V (нет решения) даёт StatusUnlocked.
func (n *NMEA) GetTime() (time.Time, Status) {
	deadline := time.Now().Add(nmeaReadTimeout)
	for time.Now().Before(deadline) {
		line, err := n.lines.ReadString('\n')
		if err != nil && line == "" {
			return time.Time{}, StatusUnavailable
		}
		t, valid, ok := parseRMC(strings.TrimSpace(line))
		if !ok {
			continue
		}
		if !valid {
			return t, StatusUnlocked
		}
		return t.Add(n.offset), StatusLocked
	}
	return time.Time{}, StatusUnavailable
}

// parseRMC разбирает $xxRMC: поле 1 = hhmmss[.sss], поле 2 = A/V, поле 9 = ddmmyy.
// ok == false, если строка не RMC или поля времени не разбираются.
func parseRMC(line string) (t time.Time, valid, ok bool) {
	if len(line) < 6 || line[0] != '$' || line[3:6] != "RMC" {
		return time.Time{}, false, false
	}
	if i := strings.IndexByte(line, '*'); i >= 0 {
		line = line[:i]
	}
	f := strings.Split(line, ",")
	if len(f) < 10 || len(f[1]) < 6 || len(f[9]) != 6 {
		return time.Time{}, false, false
	}
	// Дробная часть секунд после "150405" разбирается time.Parse автоматически.
	t, err := time.Parse("150405 020106", f[1]+" "+f[9])
	if err != nil {
		return time.Time{}, false, false
	}
	return t, f[2] == "A", true
}

// Close закрывает порт
func (n *NMEA) Close() error {
	if n.port == nil {
		return nil
	}
	return n.port.Close()
}
