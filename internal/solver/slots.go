package solver

import (
	"sort"

	"github.com/schedule-hub/timetable-api/internal/dto"
	appErrors "github.com/schedule-hub/timetable-api/pkg/errors"
)

const defaultSlotMinutes = 60

// Break modes accepted on the wire.
const (
	BreakModeSame   = "same"
	BreakModePerDay = "per-day"
	BreakModeNone   = "none"
)

func slotLength(payload dto.GenerateTimetableRequest) int {
	if payload.SlotMinutes > 0 {
		return payload.SlotMinutes
	}
	return defaultSlotMinutes
}

// normalizeBreaks repairs break windows whose end is missing or not strictly
// after start by extending them one slot length. It returns a copy so the
// caller's payload stays untouched.
func normalizeBreaks(breaks dto.BreaksConfig, slotMinutes int) (dto.BreaksConfig, error) {
	switch breaks.Mode {
	case BreakModeNone:
		return dto.BreaksConfig{Mode: BreakModeNone}, nil
	case BreakModeSame:
		if breaks.Same == nil {
			return dto.BreaksConfig{Mode: BreakModeNone}, nil
		}
		repaired, err := repairWindow(*breaks.Same, slotMinutes)
		if err != nil {
			return dto.BreaksConfig{}, err
		}
		return dto.BreaksConfig{Mode: BreakModeSame, Same: &repaired}, nil
	case BreakModePerDay:
		perDay := make(map[string]dto.BreakWindow, len(breaks.PerDay))
		for day, window := range breaks.PerDay {
			repaired, err := repairWindow(window, slotMinutes)
			if err != nil {
				return dto.BreaksConfig{}, err
			}
			perDay[day] = repaired
		}
		return dto.BreaksConfig{Mode: BreakModePerDay, PerDay: perDay}, nil
	default:
		return dto.BreaksConfig{}, appErrors.Clone(appErrors.ErrValidation, "unknown break mode "+breaks.Mode)
	}
}

func repairWindow(window dto.BreakWindow, slotMinutes int) (dto.BreakWindow, error) {
	start, err := parseClock(window.Start)
	if err != nil {
		return dto.BreakWindow{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid break start")
	}
	if window.End != "" {
		end, err := parseClock(window.End)
		if err != nil {
			return dto.BreakWindow{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid break end")
		}
		if end > start {
			return dto.BreakWindow{Start: formatClock(start), End: formatClock(end)}, nil
		}
	}
	return dto.BreakWindow{Start: formatClock(start), End: formatClock(start + slotMinutes)}, nil
}

// breakWindow resolves the break interval applying to the given day, if any.
// Windows are assumed normalized, so parse failures cannot occur here.
func breakWindow(breaks dto.BreaksConfig, day string) (Slot, bool) {
	var window dto.BreakWindow
	switch {
	case breaks.Mode == BreakModeSame && breaks.Same != nil:
		window = *breaks.Same
	case breaks.Mode == BreakModePerDay:
		perDay, ok := breaks.PerDay[day]
		if !ok {
			return Slot{}, false
		}
		window = perDay
	default:
		return Slot{}, false
	}
	start, err := parseClock(window.Start)
	if err != nil {
		return Slot{}, false
	}
	end, err := parseClock(window.End)
	if err != nil {
		return Slot{}, false
	}
	return Slot{Start: start, End: end}, true
}

// respectsBreak reports whether the slot avoids the applicable break window.
// Touching the window at an endpoint is allowed.
func respectsBreak(breaks dto.BreaksConfig, day string, slot Slot) bool {
	window, ok := breakWindow(breaks, day)
	if !ok {
		return true
	}
	return !slot.overlaps(window)
}

// sliceWindow splits [start, end) into successive slices of the given length,
// stopping once the remaining tail is shorter than length-10 minutes. The
// final slice may be clipped to the window end.
func sliceWindow(start, end, minutes int) []Slot {
	threshold := minutes - 10
	if threshold < 1 {
		threshold = 1
	}
	var out []Slot
	for cursor := start; cursor+threshold <= end; {
		next := cursor + minutes
		if next > end {
			next = end
		}
		out = append(out, Slot{Start: cursor, End: next})
		cursor = next
	}
	return out
}

// buildDaySlots expands the authored time windows into the per-day slot grid,
// honouring breaks and post-break resumption. Days keep the order of their
// first appearance in the payload so downstream iteration is deterministic.
func buildDaySlots(payload dto.GenerateTimetableRequest, breaks dto.BreaksConfig) (map[string][]Slot, []string, error) {
	minutes := slotLength(payload)
	slotsByDay := make(map[string][]Slot)
	var dayOrder []string

	for _, window := range payload.Timeslots {
		if window.Day == "" || window.Start == "" || window.End == "" {
			continue
		}
		start, err := parseClock(window.Start)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timeslot start")
		}
		end, err := parseClock(window.End)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timeslot end")
		}
		if end <= start {
			continue
		}

		slices := sliceWindow(start, end, minutes)
		if resume, ok := resumeSlices(breaks, window.Day, start, end, minutes); ok {
			slices = append(slices, resume...)
		}

		for _, slot := range slices {
			if !respectsBreak(breaks, window.Day, slot) {
				continue
			}
			if _, seen := slotsByDay[window.Day]; !seen {
				dayOrder = append(dayOrder, window.Day)
			}
			slotsByDay[window.Day] = append(slotsByDay[window.Day], slot)
		}
	}

	for day, slots := range slotsByDay {
		slotsByDay[day] = dedupeSlots(slots)
	}
	if len(slotsByDay) == 0 {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "no valid time slots available after applying breaks")
	}
	return slotsByDay, dayOrder, nil
}

// resumeSlices builds the post-break series for one window when a break
// intersects it.
func resumeSlices(breaks dto.BreaksConfig, day string, start, end, minutes int) ([]Slot, bool) {
	window, ok := breakWindow(breaks, day)
	if !ok {
		return nil, false
	}
	if window.Start >= end || window.End <= start {
		return nil, false
	}
	resume := window.End
	if resume < start {
		resume = start
	}
	return sliceWindow(resume, end, minutes), true
}

// dedupeSlots keeps the earliest end per start time and sorts by start.
func dedupeSlots(slots []Slot) []Slot {
	earliest := make(map[int]int, len(slots))
	for _, slot := range slots {
		if end, ok := earliest[slot.Start]; !ok || slot.End < end {
			earliest[slot.Start] = slot.End
		}
	}
	out := make([]Slot, 0, len(earliest))
	for start, end := range earliest {
		out = append(out, Slot{Start: start, End: end})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
