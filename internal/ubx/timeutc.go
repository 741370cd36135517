package ubx

import (
	"encoding/binary"
	"fmt"
	"time"
)

// NAVTIMEUTCSize — длина payload UBX-NAV-TIMEUTC.
const NAVTIMEUTCSize = 20

// Смещения полей NAV-TIMEUTC.
const (
	timeUTCAcc   = 4  // uint32, нс
	timeUTCNano  = 8  // int32, поправка к секунде, может быть отрицательной
	timeUTCYear  = 12 // uint16
	timeUTCMonth = 14
	timeUTCDay   = 15
	timeUTCHour  = 16
	timeUTCMin   = 17
	timeUTCSec   = 18
	timeUTCValid = 19
)

// Флаги valid NAV-TIMEUTC
const (
	TimeUTCValidTOW = 1 << 0
	TimeUTCValidWKN = 1 << 1
	TimeUTCValidUTC = 1 << 2
)

// TimeUTC — разобранное решение UTC приёмника.
type TimeUTC struct {
	Time     time.Time
	Accuracy time.Duration
	Valid    bool // validUTC: время и поправка UTC известны
}

// PollNAVTIMEUTC — запрос (пустой payload), на который приёмник отвечает одним NAV-TIMEUTC.
func PollNAVTIMEUTC() []byte {
	return Encode(Packet{Class: ClassNAV, ID: IDNAVTIMEUTC})
}

// ParseNAVTIMEUTC разбирает payload NAV-TIMEUTC.
func ParseNAVTIMEUTC(payload []byte) (TimeUTC, error) {
	if len(payload) < NAVTIMEUTCSize {
		return TimeUTC{}, fmt.Errorf("ubx: NAV-TIMEUTC payload %d bytes, want %d", len(payload), NAVTIMEUTCSize)
	}
	valid := payload[timeUTCValid]
	nano := int32(binary.LittleEndian.Uint32(payload[timeUTCNano:]))
	t := time.Date(
		int(binary.LittleEndian.Uint16(payload[timeUTCYear:])),
		time.Month(payload[timeUTCMonth]),
		int(payload[timeUTCDay]),
		int(payload[timeUTCHour]),
		int(payload[timeUTCMin]),
		int(payload[timeUTCSec]),
		0, time.UTC,
	).Add(time.Duration(nano))
	return TimeUTC{
		Time:     t,
		Accuracy: time.Duration(binary.LittleEndian.Uint32(payload[timeUTCAcc:])),
		Valid:    valid&TimeUTCValidUTC != 0,
	}, nil
}
