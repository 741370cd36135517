package timecode

import "testing"

// field — поле сигнала: секунды передачи и веса соответствующих битов.
type field struct {
	seconds []int
	weights []int
}

// lsbValue декодирует поле, где секунда i — бит i (DCF77).
func lsbValue(bits uint64, f field) int {
	v := 0
	for i, s := range f.seconds {
		if bitSet(bits, s) {
			v += f.weights[i]
		}
	}
	return v
}

// msbValue декодирует поле, где секунда i — бит 59-i (WWVB, JJY, MSF).
func msbValue(bits uint64, f field) int {
	v := 0
	for i, s := range f.seconds {
		if bitSet(bits, msb(s)) {
			v += f.weights[i]
		}
	}
	return v
}

func span(from, to int) []int {
	var out []int
	for s := from; s <= to; s++ {
		out = append(out, s)
	}
	return out
}

func concat(parts ...[]int) []int {
	var out []int
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func onesAt(bits uint64, seconds []int, msbFirst bool) int {
	n := 0
	for _, s := range seconds {
		pos := s
		if msbFirst {
			pos = msb(s)
		}
		if bitSet(bits, pos) {
			n++
		}
	}
	return n
}

func checkField(t *testing.T, what string, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %d, want %d", what, got, want)
	}
}
