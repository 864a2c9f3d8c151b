package solver

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Slot is a fixed interval within one day, bounds in minutes of day.
type Slot struct {
	Start int
	End   int
}

// parseClock converts an "HH:MM" wire value into a minute-of-day integer.
func parseClock(raw string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock value %q out of range", raw)
	}
	return hour*60 + minute, nil
}

// formatClock renders a minute-of-day value back to "HH:MM".
func formatClock(minuteOfDay int) string {
	return fmt.Sprintf("%02d:%02d", minuteOfDay/60, minuteOfDay%60)
}

// String renders the slot in the "HH:MM-HH:MM" wire form.
func (s Slot) String() string {
	return formatClock(s.Start) + "-" + formatClock(s.End)
}

// overlaps reports whether the two intervals share any time. Touching at an
// endpoint is not an overlap.
func (s Slot) overlaps(o Slot) bool {
	return s.Start < o.End && o.Start < s.End
}

// adjacent reports whether one interval ends exactly where the other starts.
func (s Slot) adjacent(o Slot) bool {
	return s.End == o.Start || o.End == s.Start
}

func slotsOverlap(a, b []Slot) bool {
	for _, s := range a {
		for _, o := range b {
			if s.overlaps(o) {
				return true
			}
		}
	}
	return false
}

func slotsAdjacent(a, b []Slot) bool {
	for _, s := range a {
		for _, o := range b {
			if s.adjacent(o) {
				return true
			}
		}
	}
	return false
}

func sortSlotsByStart(slots []Slot) {
	sort.Slice(slots, func(i, j int) bool { return slots[i].Start < slots[j].Start })
}
