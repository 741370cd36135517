//go:build linux

package rtclock

import "testing"

func TestResolution(t *testing.T) {
	res, err := Resolution()
	if err != nil {
		t.Fatal(err)
	}
	if res <= 0 {
		t.Errorf("resolution %v", res)
	}
}
