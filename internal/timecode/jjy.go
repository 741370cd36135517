package timecode

import "time"

// JJY — японский сигнал (40 кГц Fukushima, 60 кГц Kyushu), местное время (JST).
// Оба передатчика отличаются только частотой несущей.
type JJY struct {
	hz   int
	loc  *time.Location
	bits uint64
}

// NewJJY создаёт кодер JJY с несущей hz (40000 или 60000).
func NewJJY(hz int, loc *time.Location) *JJY {
	return &JJY{hz: hz, loc: loc}
}

func (j *JJY) Name() string {
	if j.hz == 40000 {
		return "JJY40"
	}
	return "JJY60"
}

func (j *JJY) CarrierFrequencyHz() int { return j.hz }

// Bits возвращает подготовленное поле минуты.
func (j *JJY) Bits() uint64 { return j.bits }

// PrepareMinute строит поле для текущей минуты t.
// Служебные объявления минут 15 и 45 не передаются.
func (j *JJY) PrepareMinute(t time.Time) {
	lt := t.In(j.loc)

	var bits uint64
	bits |= PaddedBCD(lt.Minute()) << msb(8)
	bits |= PaddedBCD(lt.Hour()) << msb(18)
	bits |= PaddedBCD(lt.YearDay()) << msb(33)
	bits |= BCD(lt.Year()%100) << msb(48)
	bits |= BCD(int(lt.Weekday())) << msb(52)

	bits |= Parity(bits, msb(18), msb(12)) << msb(36) // PA1: часы
	bits |= Parity(bits, msb(8), msb(1)) << msb(37)   // PA2: минуты

	j.bits = bits
}

// ModulationForSecond: полная мощность 200 мс — маркер, 800 мс — 0, 500 мс — 1, затем ослабление.
func (j *JJY) ModulationForSecond(second int) (Modulation, error) {
	if err := checkSecond(second); err != nil {
		return nil, err
	}
	if isMarkerSecond(second) {
		return Modulation{{High, ms(200)}, {Low, 0}}, nil
	}
	high := 800
	if bitSet(j.bits, msb(second)) {
		high = 500
	}
	return Modulation{{High, ms(high)}, {Low, 0}}, nil
}
