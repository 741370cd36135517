package timecode

import "time"

// Битовые позиции DCF77 (бит i = секунда i, младшим битом вперёд).
const (
	dcfCEST       = 17
	dcfCET        = 18
	dcfStartTime  = 20
	dcfMinute     = 21
	dcfMinuteP    = 28
	dcfHour       = 29
	dcfHourP      = 35
	dcfDay        = 36
	dcfWeekday    = 42
	dcfMonth      = 45
	dcfYear       = 50
	dcfDateP      = 58
	dcfSyncSecond = 59
)

// DCF77 — немецкий сигнал 77.5 кГц. Передаёт местное время следующей минуты.
type DCF77 struct {
	loc  *time.Location
	bits uint64
}

// NewDCF77 создаёт кодер DCF77 для зоны loc.
func NewDCF77(loc *time.Location) *DCF77 {
	return &DCF77{loc: loc}
}

func (d *DCF77) Name() string            { return "DCF77" }
func (d *DCF77) CarrierFrequencyHz() int { return 77500 }

// Bits возвращает подготовленное поле минуты.
func (d *DCF77) Bits() uint64 { return d.bits }

// PrepareMinute строит поле для минуты, начинающейся через 60 с после t:
// сигнал объявляет наступающую минуту.
func (d *DCF77) PrepareMinute(t time.Time) {
	lt := t.Add(time.Minute).In(d.loc)
	dst := lt.IsDST()

	var bits uint64
	bits |= boolBit(dst) << dcfCEST
	bits |= boolBit(!dst) << dcfCET
	bits |= 1 << dcfStartTime
	bits |= BCD(lt.Minute()) << dcfMinute
	bits |= BCD(lt.Hour()) << dcfHour
	bits |= BCD(lt.Day()) << dcfDay
	bits |= BCD(isoWeekday(lt.Weekday())) << dcfWeekday
	bits |= BCD(int(lt.Month())) << dcfMonth
	bits |= BCD(lt.Year()%100) << dcfYear

	bits |= Parity(bits, dcfMinute, dcfMinuteP-1) << dcfMinuteP
	bits |= Parity(bits, dcfHour, dcfHourP-1) << dcfHourP
	bits |= Parity(bits, dcfDay, dcfDateP-1) << dcfDateP

	d.bits = bits
}

// ModulationForSecond: 100 мс ослабления — 0, 200 мс — 1; в секунду 59 ослабления нет.
func (d *DCF77) ModulationForSecond(second int) (Modulation, error) {
	if err := checkSecond(second); err != nil {
		return nil, err
	}
	if second == dcfSyncSecond {
		return Modulation{{High, 0}}, nil
	}
	low := 100
	if bitSet(d.bits, second) {
		low = 200
	}
	return Modulation{{Low, ms(low)}, {High, 0}}, nil
}

// isoWeekday: понедельник = 1 ... воскресенье = 7.
func isoWeekday(w time.Weekday) int {
	if w == time.Sunday {
		return 7
	}
	return int(w)
}
