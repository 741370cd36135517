//go:build !linux

package carrier

import "errors"

func mapBCMRegisters() (registers, registers, error) {
	return nil, nil, errors.New("register access is supported on linux only")
}
