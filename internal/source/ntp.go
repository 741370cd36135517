package source

import (
	"encoding/binary"
	"fmt"
	"net"
	"time"
)

const (
	ntpPacketSize = 48
	// ntpEpochOffset — секунды между 1900-01-01 и 1970-01-01.
	ntpEpochOffset = 2208988800
)

// NTP — источник времени по SNTP (RFC 4330): один запрос, смещение по четырём меткам.
type NTP struct {
	host    string
	timeout time.Duration
	now     func() time.Time
}

// NewNTP создаёт NTP источник; host — имя или адрес, порт по умолчанию 123.
func NewNTP(host string, timeout time.Duration) *NTP {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NTP{host: host, timeout: timeout, now: time.Now}
}

// Name возвращает имя источника
func (n *NTP) Name() string {
	return fmt.Sprintf("ntp:%s", n.host)
}

// Protocol возвращает протокол
func (n *NTP) Protocol() string {
	return "ntp"
}

// GetTime возвращает локальное время, исправленное на смещение сервера.
func (n *NTP) GetTime() (time.Time, Status) {
	offset, err := n.Offset()
	if err != nil {
		return time.Time{}, StatusUnavailable
	}
	return n.now().Add(offset), StatusLocked
}

// Offset выполняет обмен и возвращает ((T2-T1)+(T3-T4))/2.
func (n *NTP) Offset() (time.Duration, error) {
	addr := n.host
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "123")
	}
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(n.timeout)); err != nil {
		return 0, err
	}

	req := make([]byte, ntpPacketSize)
	req[0] = 0x23 // LI 0, версия 4, режим 3 (клиент)
	t1 := n.now()
	putNTPTime(req[40:], t1)
	if _, err := conn.Write(req); err != nil {
		return 0, err
	}
	resp := make([]byte, ntpPacketSize)
	if _, err := conn.Read(resp); err != nil {
		return 0, err
	}
	t4 := n.now()

	if mode := resp[0] & 0x7; mode != 4 {
		return 0, fmt.Errorf("ntp: unexpected mode %d", mode)
	}
	if stratum := resp[1]; stratum == 0 || stratum > 15 {
		return 0, fmt.Errorf("ntp: unsynchronized server (stratum %d)", stratum)
	}
	t2 := ntpTime(resp[32:])
	t3 := ntpTime(resp[40:])
	return (t2.Sub(t1) + t3.Sub(t4)) / 2, nil
}

// Close не требует освобождения ресурсов
func (n *NTP) Close() error {
	return nil
}

func ntpTime(b []byte) time.Time {
	sec := int64(binary.BigEndian.Uint32(b[0:4])) - ntpEpochOffset
	frac := int64(binary.BigEndian.Uint32(b[4:8]))
	return time.Unix(sec, (frac*1e9)>>32).UTC()
}

func putNTPTime(b []byte, t time.Time) {
	binary.BigEndian.PutUint32(b[0:4], uint32(t.Unix()+ntpEpochOffset))
	binary.BigEndian.PutUint32(b[4:8], uint32((int64(t.Nanosecond())<<32)/1e9))
}
