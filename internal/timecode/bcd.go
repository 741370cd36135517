package timecode

// BCD упаковывает число 0..999 по 4 бита на цифру: сотни в битах 8–11,
// десятки в 4–7, единицы в 0–3.
func BCD(n int) uint64 {
	return uint64((n/100)%10)<<8 | uint64((n/10)%10)<<4 | uint64(n%10)
}

// PaddedBCD упаковывает число 0..999 по 5 бит на цифру (старший бит каждой группы
// всегда ноль): сотни в битах 10–13, десятки в 5–8, единицы в 0–3. Так кодируют WWVB и JJY.
func PaddedBCD(n int) uint64 {
	return uint64((n/100)%10)<<10 | uint64((n/10)%10)<<5 | uint64(n%10)
}

// Parity — число единиц в битах [from, to] (включительно) по модулю 2.
func Parity(field uint64, from, to int) uint64 {
	var n uint64
	for bit := from; bit <= to; bit++ {
		if bitSet(field, bit) {
			n++
		}
	}
	return n & 1
}

// OddParity — бит, дополняющий число единиц в [from, to] до нечётного (MSF).
func OddParity(field uint64, from, to int) uint64 {
	return Parity(field, from, to) ^ 1
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
