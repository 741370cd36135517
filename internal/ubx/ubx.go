// Package ubx — минимальный кодек протокола u-blox UBX: кадр, контрольная сумма,
// опрос UBX-NAV-TIMEUTC.
package ubx

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Sync bytes для UBX протокола
const (
	Sync1 = 0xB5
	Sync2 = 0x62
)

// Классы и ID сообщений
const (
	ClassNAV     = 0x01
	IDNAVTIMEUTC = 0x21
)

const (
	headerLen  = 6 // sync, sync, class, id, length(2)
	maxPayload = 1024
)

// ErrChecksum — контрольная сумма кадра не сошлась.
var ErrChecksum = errors.New("ubx: checksum mismatch")

// Packet — UBX сообщение без кадра.
type Packet struct {
	Class   uint8
	ID      uint8
	Payload []byte
}

// Is сравнивает класс и ID сообщения.
func (p Packet) Is(class, id uint8) bool {
	return p.Class == class && p.ID == id
}

// Checksum вычисляет UBX контрольную сумму (8-bit Fletcher, без sync bytes)
func Checksum(data []byte) (ckA, ckB uint8) {
	for _, b := range data {
		ckA += b
		ckB += ckA
	}
	return ckA, ckB
}

// Encode собирает полный кадр: sync + class/id + length + payload + checksum.
func Encode(p Packet) []byte {
	buf := make([]byte, 0, headerLen+len(p.Payload)+2)
	buf = append(buf, Sync1, Sync2, p.Class, p.ID)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(p.Payload)))
	buf = append(buf, p.Payload...)
	ckA, ckB := Checksum(buf[2:])
	return append(buf, ckA, ckB)
}

// Reader выделяет UBX кадры из потока, пропуская NMEA и прочий мусор между ними.
type Reader struct {
	src io.Reader
	r   *bufio.Reader
}

// NewReader создаёт Reader поверх r.
func NewReader(r io.Reader) *Reader {
	return &Reader{src: r, r: bufio.NewReader(r)}
}

// Discard отбрасывает уже прочитанные в буфер, но не разобранные байты.
func (rd *Reader) Discard() {
	rd.r.Reset(rd.src)
}

// Next читает следующий кадр. При ошибке контрольной суммы возвращает ErrChecksum;
// поток остаётся пригодным для следующего вызова.
func (rd *Reader) Next() (Packet, error) {
	if err := rd.sync(); err != nil {
		return Packet{}, err
	}
	var hdr [4]byte
	if _, err := io.ReadFull(rd.r, hdr[:]); err != nil {
		return Packet{}, err
	}
	length := int(binary.LittleEndian.Uint16(hdr[2:]))
	if length > maxPayload {
		return Packet{}, fmt.Errorf("ubx: payload length %d too large", length)
	}
	body := make([]byte, length+2)
	if _, err := io.ReadFull(rd.r, body); err != nil {
		return Packet{}, err
	}
	ckA, ckB := Checksum(append(hdr[:], body[:length]...))
	if body[length] != ckA || body[length+1] != ckB {
		return Packet{}, ErrChecksum
	}
	return Packet{Class: hdr[0], ID: hdr[1], Payload: body[:length]}, nil
}

func (rd *Reader) sync() error {
	prev := byte(0)
	for {
		b, err := rd.r.ReadByte()
		if err != nil {
			return err
		}
		if prev == Sync1 && b == Sync2 {
			return nil
		}
		prev = b
	}
}
