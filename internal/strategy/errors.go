package strategy

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is the common cause of ErrNotOwner and ErrNotController, so
// callers that only care about access control can match on it alone.
var ErrUnauthorized = errors.New("unauthorized")

var (
	ErrNotOwner         = fmt.Errorf("Ownable: caller is not the owner: %w", ErrUnauthorized)
	ErrNotController    = fmt.Errorf("Caller is not the controller: %w", ErrUnauthorized)
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidAddress   = errors.New("invalid address")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)
