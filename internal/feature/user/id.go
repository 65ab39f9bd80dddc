package user

import (
	"fmt"
	"strings"
)

// IDStrategy decides how CreateUser numbers new records.
type IDStrategy string

const (
	// IDFromLength numbers a new record len(users)+1. After a delete this
	// can hand out an id that is still in use.
	IDFromLength IDStrategy = "length"
	// IDSequence numbers from a counter that only moves forward.
	IDSequence IDStrategy = "sequence"
)

func ParseIDStrategy(s string) (IDStrategy, error) {
	switch IDStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", IDFromLength:
		return IDFromLength, nil
	case IDSequence:
		return IDSequence, nil
	}
	return "", fmt.Errorf("unknown id strategy %q", s)
}

func (st IDStrategy) next(count, seq int) string {
	if st == IDSequence {
		return FormatID(seq)
	}
	return FormatID(count + 1)
}

// FormatID renders n as usr_NNN, zero-padded to three digits.
func FormatID(n int) string { return fmt.Sprintf("usr_%03d", n) }
