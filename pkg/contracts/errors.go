package contracts

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidContractData is matched by every *InvalidContractDataError
	ErrInvalidContractData = errors.New("invalid contract data")
)

// InvalidContractDataError identifies the offending record and field.
type InvalidContractDataError struct {
	ID     string
	Field  string
	Reason string
}

func (e *InvalidContractDataError) Error() string {
	id := e.ID
	if id == "" {
		id = "<sem id>"
	}

	return fmt.Sprintf("%s: contract %s: %s %s", ErrInvalidContractData, id, e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidContractData) work.
func (e *InvalidContractDataError) Is(target error) bool {
	return target == ErrInvalidContractData
}
