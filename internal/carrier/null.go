package carrier

import "github.com/shiwa/timecard-mini/tc-tempus/internal/timecode"

// Null — бэкенд пробного прогона: ничего не передаёт, только запоминает состояние.
type Null struct {
	Hz      float64
	Running bool
	Output  bool
	Power   timecode.CarrierPower
}

func (n *Null) Init() error { return nil }

func (n *Null) StartClock(hz float64) (float64, error) {
	n.Hz, n.Running, n.Output = hz, true, true
	return hz, nil
}

func (n *Null) StopClock() error {
	n.Running, n.Output = false, false
	return nil
}

func (n *Null) SetTxPower(p timecode.CarrierPower) error {
	n.Power = p
	return nil
}

func (n *Null) EnableClockOutput(enable bool) error {
	n.Output = enable
	return nil
}
