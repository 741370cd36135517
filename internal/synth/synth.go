// Package synth подбирает делитель тактового генератора (целая часть + 10-битная дробная)
// для получения частоты несущей из набора опорных источников.
package synth

import (
	"errors"
	"math"
	"sort"
)

const (
	minDivI = 2
	maxDivI = 4095
	// fracSteps — разрядность дробной части делителя (MASH, 10 бит).
	fracSteps = 1024
)

// ErrNoDivider — ни один источник не даёт делитель в допустимом диапазоне.
var ErrNoDivider = errors.New("synth: no divider configuration for requested frequency")

// Source — опорный генератор.
type Source struct {
	Name string
	ID   uint32 // значение поля SRC регистра CTL
	Hz   float64
}

// Divider — выбранная конфигурация.
type Divider struct {
	Source Source
	DivI   int
	DivF   int
	Hz     float64 // достижимая частота
	Error  float64 // |Hz - запрошенная|
}

// Divisor возвращает полный коэффициент деления DivI + DivF/1024.
func (d Divider) Divisor() float64 {
	return float64(d.DivI) + float64(d.DivF)/fracSteps
}

// BCM283xSources — источники менеджера тактирования Raspberry Pi.
var BCM283xSources = []Source{
	{Name: "PLLC", ID: 5, Hz: 1000e6},
	{Name: "PLLD", ID: 6, Hz: 500e6},
	{Name: "HDMI", ID: 7, Hz: 216e6},
	{Name: "oscillator", ID: 1, Hz: 19.2e6},
}

// BestDivider перебирает источники от самой высокой частоты к самой низкой
// и возвращает делитель с минимальной ошибкой. При равной ошибке остаётся
// источник, проверенный раньше.
func BestDivider(freq float64, sources []Source) (Divider, error) {
	if !(freq > 0) || math.IsInf(freq, 0) {
		return Divider{}, ErrNoDivider
	}
	ordered := make([]Source, len(sources))
	copy(ordered, sources)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Hz > ordered[j].Hz })

	var best Divider
	found := false
	for _, src := range ordered {
		d, ok := divide(src, freq)
		if !ok {
			continue
		}
		if !found || d.Error < best.Error {
			best, found = d, true
		}
	}
	if !found {
		return Divider{}, ErrNoDivider
	}
	return best, nil
}

func divide(src Source, freq float64) (Divider, bool) {
	division := src.Hz / freq
	if division < minDivI || division > maxDivI {
		return Divider{}, false
	}
	divI := int(division)
	divF := int(math.Round((division - float64(divI)) * fracSteps))
	if divF == fracSteps {
		divI++
		divF = 0
		if divI > maxDivI {
			return Divider{}, false
		}
	}
	d := Divider{Source: src, DivI: divI, DivF: divF}
	d.Hz = src.Hz / d.Divisor()
	d.Error = math.Abs(d.Hz - freq)
	return d, true
}
