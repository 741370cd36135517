//go:build linux

package carrier

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"github.com/shiwa/timecard-mini/tc-tempus/internal/logger"
	"golang.org/x/sys/unix"
)

// mmapRegisters — блок регистров, отображённый из /dev/mem.
type mmapRegisters struct {
	words []uint32
}

func (m *mmapRegisters) Load(word int) uint32 { return atomic.LoadUint32(&m.words[word]) }

func (m *mmapRegisters) Store(word int, v uint32) { atomic.StoreUint32(&m.words[word], v) }

func mapBCMRegisters() (registers, registers, error) {
	model, err := detectLocalModel()
	if err != nil {
		logger.Error("rpi: could not determine Pi model (%v), assuming %s", err, model)
	}
	base := model.PeripheralBase()

	f, err := os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("open /dev/mem (need to be root): %w", err)
	}
	defer f.Close()

	gpio, err := mmapBlock(f, base+gpioBlockOffset)
	if err != nil {
		return nil, nil, err
	}
	clock, err := mmapBlock(f, base+clockBlockOffset)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("rpi: %s, peripheral base 0x%x", model, base)
	return gpio, clock, nil
}

func mmapBlock(f *os.File, offset int64) (*mmapRegisters, error) {
	data, err := unix.Mmap(int(f.Fd()), offset, blockSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap 0x%x: %w", offset, err)
	}
	words := unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
	return &mmapRegisters{words: words}, nil
}

func detectLocalModel() (PiModel, error) {
	f, err := os.Open("/proc/cpuinfo")
	if err != nil {
		return Pi3, err
	}
	defer f.Close()
	return DetectModel(f)
}
