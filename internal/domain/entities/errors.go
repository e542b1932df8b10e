package entities

import "fmt"

// ErrIllegalTransition is returned when a status write would violate the
// meeting state machine's transition table.
func ErrIllegalTransition(from, to MeetingStatus) error {
	return fmt.Errorf("illegal meeting status transition %s -> %s", from, to)
}
