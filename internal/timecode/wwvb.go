package timecode

import "time"

// WWVB и JJY передают старшим битом вперёд: секунда i — бит 59-i.
func msb(second int) int { return 59 - second }

// WWVB — американский сигнал 60 кГц. Поля минуты в UTC, флаги DST — по местному времени.
type WWVB struct {
	loc  *time.Location
	bits uint64
}

// NewWWVB создаёт кодер WWVB; loc определяет флаги летнего времени.
func NewWWVB(loc *time.Location) *WWVB {
	return &WWVB{loc: loc}
}

func (w *WWVB) Name() string            { return "WWVB" }
func (w *WWVB) CarrierFrequencyHz() int { return 60000 }

// Bits возвращает подготовленное поле минуты.
func (w *WWVB) Bits() uint64 { return w.bits }

// PrepareMinute строит поле для текущей минуты t (без сдвига на +60 с).
func (w *WWVB) PrepareMinute(t time.Time) {
	utc := t.UTC()

	var bits uint64
	bits |= PaddedBCD(utc.Minute()) << msb(8)
	bits |= PaddedBCD(utc.Hour()) << msb(18)
	bits |= PaddedBCD(utc.YearDay()) << msb(33)
	bits |= PaddedBCD(utc.Year()%100) << msb(53)
	bits |= boolBit(isLeapYear(utc.Year())) << msb(55)

	// Предупреждение о переходе: DST через сутки и DST сейчас.
	tomorrow := t.Add(24 * time.Hour).In(w.loc)
	bits |= boolBit(tomorrow.IsDST()) << msb(57)
	bits |= boolBit(t.In(w.loc).IsDST()) << msb(58)

	w.bits = bits
}

// ModulationForSecond: маркеры 800 мс в секунды 0, 9, 19, ... 59; данные 200 мс (0) или 500 мс (1).
func (w *WWVB) ModulationForSecond(second int) (Modulation, error) {
	if err := checkSecond(second); err != nil {
		return nil, err
	}
	if isMarkerSecond(second) {
		return Modulation{{Low, ms(800)}, {High, 0}}, nil
	}
	low := 200
	if bitSet(w.bits, msb(second)) {
		low = 500
	}
	return Modulation{{Low, ms(low)}, {High, 0}}, nil
}

func isMarkerSecond(second int) bool {
	return second == 0 || second%10 == 9
}
