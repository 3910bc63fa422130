package domain

import "strings"

// Side represents the direction of a position.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// String returns the string representation of Side.
func (s Side) String() string {
	return string(s)
}

// IsValid checks if the side is a valid value.
func (s Side) IsValid() bool {
	return s == SideLong || s == SideShort
}

// ParseSide normalizes a side string ("LONG", " short ") into a Side.
// Returns false for anything that is not long or short.
func ParseSide(raw string) (Side, bool) {
	s := Side(strings.ToLower(strings.TrimSpace(raw)))
	return s, s.IsValid()
}
