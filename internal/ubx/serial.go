package ubx

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// ErrTimeout — ответ не пришёл до истечения таймаута.
var ErrTimeout = errors.New("ubx: read timeout")

// ErrNoEpoch — за отведённое время решение приёмника не сменилось.
var ErrNoEpoch = errors.New("ubx: navigation epoch did not change")

const (
	// drainTimeout — пауза в потоке, после которой входной буфер считается пустым.
	drainTimeout = 10 * time.Millisecond
	maxDrain     = 250 * time.Millisecond
)

// Port — последовательный порт приёмника u-blox.
type Port struct {
	rw      io.ReadWriteCloser
	setRead func(time.Duration) error
	reader  *Reader
	now     func() time.Time
}

// Open открывает последовательный порт
func Open(device string, baud int) (*Port, error) {
	p, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("serial open %s: %w", device, err)
	}
	return newPort(p, p.SetReadTimeout), nil
}

func newPort(rw io.ReadWriteCloser, setRead func(time.Duration) error) *Port {
	return &Port{rw: rw, setRead: setRead, reader: NewReader(timeoutReader{rw}), now: time.Now}
}

// PollTimeUTC запрашивает NAV-TIMEUTC и ждёт ответ, пропуская остальные сообщения.
// Всё, что пришло до запроса, отбрасывается.
func (p *Port) PollTimeUTC(timeout time.Duration) (TimeUTC, error) {
	tu, _, _, err := p.poll(timeout)
	return tu, err
}

// Epoch — решение приёмника и локальный момент, когда оно стало доступно.
type Epoch struct {
	TimeUTC
	// Local — оценка локального времени появления решения, ± Uncertainty
	Local       time.Time
	Uncertainty time.Duration
}

// EpochTimeUTC опрашивает приёмник подряд, пока решение не сменится на следующую эпоху.
// Новая эпоха появилась между отправкой предыдущего опроса и приходом ответа с ней;
// Local — середина этого интервала. Ответ на одиночный опрос может быть старше на целую
// эпоху навигации, поэтому для сравнения часов используется только момент смены.
// Если решение без validUTC, возвращается сразу с нулевым Local.
func (p *Port) EpochTimeUTC(pollTimeout, limit time.Duration) (Epoch, error) {
	deadline := p.now().Add(limit)
	prev, prevSent, _, err := p.poll(pollTimeout)
	if err != nil {
		return Epoch{}, err
	}
	if !prev.Valid {
		return Epoch{TimeUTC: prev}, nil
	}
	for p.now().Before(deadline) {
		cur, sent, recv, err := p.poll(pollTimeout)
		if err != nil {
			return Epoch{}, err
		}
		if !cur.Time.Equal(prev.Time) {
			half := recv.Sub(prevSent) / 2
			return Epoch{TimeUTC: cur, Local: prevSent.Add(half), Uncertainty: half}, nil
		}
		prev, prevSent = cur, sent
	}
	return Epoch{}, ErrNoEpoch
}

// poll возвращает ответ, момент отправки запроса и момент прихода ответа.
func (p *Port) poll(timeout time.Duration) (TimeUTC, time.Time, time.Time, error) {
	if err := p.drain(); err != nil {
		return TimeUTC{}, time.Time{}, time.Time{}, err
	}
	if err := p.setRead(timeout); err != nil {
		return TimeUTC{}, time.Time{}, time.Time{}, err
	}
	sent := p.now()
	if _, err := p.rw.Write(PollNAVTIMEUTC()); err != nil {
		return TimeUTC{}, time.Time{}, time.Time{}, fmt.Errorf("ubx poll: %w", err)
	}
	deadline := sent.Add(timeout)
	for p.now().Before(deadline) {
		pkt, err := p.reader.Next()
		if errors.Is(err, ErrChecksum) {
			continue
		}
		if err != nil {
			return TimeUTC{}, time.Time{}, time.Time{}, err
		}
		if pkt.Is(ClassNAV, IDNAVTIMEUTC) {
			recv := p.now()
			tu, err := ParseNAVTIMEUTC(pkt.Payload)
			return tu, sent, recv, err
		}
	}
	return TimeUTC{}, time.Time{}, time.Time{}, ErrTimeout
}

// drain отбрасывает накопившиеся периодические сообщения: сначала буфер ОС, затем
// чтением до первой паузы в потоке.
func (p *Port) drain() error {
	if f, ok := p.rw.(interface{ ResetInputBuffer() error }); ok {
		if err := f.ResetInputBuffer(); err != nil {
			return fmt.Errorf("ubx: reset input: %w", err)
		}
	}
	p.reader.Discard()
	if err := p.setRead(drainTimeout); err != nil {
		return err
	}
	buf := make([]byte, 256)
	deadline := p.now().Add(maxDrain)
	for p.now().Before(deadline) {
		n, err := p.rw.Read(buf)
		if n == 0 || err != nil {
			return nil
		}
	}
	return nil
}

// Close закрывает порт
func (p *Port) Close() error {
	if p.rw == nil {
		return nil
	}
	return p.rw.Close()
}

// timeoutReader превращает (0, nil) — так go.bug.st/serial сообщает о таймауте — в ErrTimeout,
// иначе io.ReadFull крутился бы бесконечно.
type timeoutReader struct {
	r io.Reader
}

func (t timeoutReader) Read(b []byte) (int, error) {
	n, err := t.r.Read(b)
	if n == 0 && err == nil {
		return 0, ErrTimeout
	}
	return n, err
}
