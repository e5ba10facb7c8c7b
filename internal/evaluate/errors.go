package evaluate

import (
	"errors"
	"fmt"
)

// ErrContractViolation marks fragment lists that break the coverage contract.
var ErrContractViolation = errors.New("fragment contract violation")

// ContractError describes why a fragment list was rejected.
type ContractError struct {
	Msg string
}

func (e *ContractError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return ErrContractViolation.Error()
	}
	return fmt.Sprintf("%s: %s", ErrContractViolation.Error(), e.Msg)
}

func (e *ContractError) Unwrap() error { return ErrContractViolation }

func violationf(format string, args ...any) error {
	return &ContractError{Msg: fmt.Sprintf(format, args...)}
}
