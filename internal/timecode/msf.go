package timecode

import "time"

// msfMinuteMarker — биты A 52..59 = 01111110, объявление начала следующей минуты.
const msfMinuteMarker = 0b1111110

// MSF — британский сигнал 60 кГц. Две битовые плоскости A и B, местное время следующей минуты.
type MSF struct {
	loc  *time.Location
	a, b uint64
}

// NewMSF создаёт кодер MSF для зоны loc.
func NewMSF(loc *time.Location) *MSF {
	return &MSF{loc: loc}
}

func (m *MSF) Name() string            { return "MSF" }
func (m *MSF) CarrierFrequencyHz() int { return 60000 }

// Bits возвращает подготовленные плоскости A и B.
func (m *MSF) Bits() (a, b uint64) { return m.a, m.b }

// PrepareMinute строит плоскости для минуты, начинающейся через 60 с после t.
// Биты DUT1 и предупреждение о смене летнего времени не передаются.
func (m *MSF) PrepareMinute(t time.Time) {
	lt := t.Add(time.Minute).In(m.loc)

	a := uint64(msfMinuteMarker)
	a |= BCD(lt.Year()%100) << msb(24)
	a |= BCD(int(lt.Month())) << msb(29)
	a |= BCD(lt.Day()) << msb(35)
	a |= BCD(int(lt.Weekday())) << msb(38)
	a |= BCD(lt.Hour()) << msb(44)
	a |= BCD(lt.Minute()) << msb(51)

	// Чётность B считается по уже заполненной A.
	var b uint64
	b |= OddParity(a, msb(24), msb(17)) << msb(54) // год
	b |= OddParity(a, msb(35), msb(25)) << msb(55) // месяц и день
	b |= OddParity(a, msb(38), msb(36)) << msb(56) // день недели
	b |= OddParity(a, msb(51), msb(39)) << msb(57) // время
	b |= boolBit(lt.IsDST()) << msb(58)

	m.a, m.b = a, b
}

// ModulationForSecond: секунда 0 — 500 мс без несущей; остальные — три окна по 100 мс,
// где второе и третье гасят несущую для единичных битов A и B.
func (m *MSF) ModulationForSecond(second int) (Modulation, error) {
	if err := checkSecond(second); err != nil {
		return nil, err
	}
	if second == 0 {
		return Modulation{{Off, ms(500)}, {High, 0}}, nil
	}
	return Modulation{
		{Off, ms(100)},
		{msfPower(bitSet(m.a, msb(second))), ms(100)},
		{msfPower(bitSet(m.b, msb(second))), ms(100)},
		{High, 0},
	}, nil
}

func msfPower(bit bool) CarrierPower {
	if bit {
		return Off
	}
	return High
}
