package models

import (
	"fmt"
	"regexp"
	"strings"
)

// Address identifies an account or contract on the ledger (0x-prefixed, 20 bytes hex).
type Address string

// ZeroAddress is the unset address. A strategy starts with its vault pointing here.
const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

var addressPattern = regexp.MustCompile(`^0x[0-9a-f]{40}$`)

// ParseAddress normalises s to lower case and checks its shape.
func ParseAddress(s string) (Address, error) {
	a := Address(strings.ToLower(strings.TrimSpace(s)))
	if !addressPattern.MatchString(string(a)) {
		return "", fmt.Errorf("invalid address %q", s)
	}
	return a, nil
}

func (a Address) IsZero() bool {
	return a == "" || a == ZeroAddress
}

func (a Address) String() string {
	return string(a)
}
