package carrier

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// PiModel — семейство Raspberry Pi с точки зрения адреса периферии.
type PiModel int

const (
	Pi1 PiModel = iota + 1
	Pi2
	Pi3
	Pi4
)

func (m PiModel) String() string {
	return fmt.Sprintf("Pi%d", int(m))
}

// PeripheralBase возвращает физический адрес блока периферии BCM283x/BCM2711.
func (m PiModel) PeripheralBase() int64 {
	switch m {
	case Pi1:
		return 0x20000000
	case Pi4:
		return 0xFE000000
	default:
		return 0x3F000000
	}
}

// DetectModel разбирает /proc/cpuinfo (поле Revision, тип платы в битах 4..11).
// При ошибке возвращает Pi3 как самое вероятное семейство вместе с ошибкой.
func DetectModel(cpuinfo io.Reader) (PiModel, error) {
	sc := bufio.NewScanner(cpuinfo)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "Revision") {
			continue
		}
		_, value, ok := strings.Cut(line, ":")
		if !ok {
			break
		}
		rev, err := strconv.ParseUint(strings.TrimSpace(value), 16, 32)
		if err != nil {
			return Pi3, fmt.Errorf("cpuinfo revision %q: %w", strings.TrimSpace(value), err)
		}
		return modelFromRevision(uint32(rev)), nil
	}
	if err := sc.Err(); err != nil {
		return Pi3, err
	}
	return Pi3, errors.New("cpuinfo: no Revision line")
}

func modelFromRevision(rev uint32) PiModel {
	switch (rev >> 4) & 0xff {
	case 0x00, 0x01, 0x02, 0x03, 0x05, 0x06, 0x09, 0x0c: // A, B, A+, B+, CM1, Zero, Zero W
		return Pi1
	case 0x04, 0x12: // Pi 2, Zero 2 W
		return Pi2
	case 0x11:
		return Pi4
	default:
		return Pi3
	}
}
