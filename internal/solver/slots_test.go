package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedule-hub/timetable-api/internal/dto"
)

func TestSliceWindow(t *testing.T) {
	slices := sliceWindow(540, 720, 60)
	require.Len(t, slices, 3)
	assert.Equal(t, Slot{Start: 540, End: 600}, slices[0])
	assert.Equal(t, Slot{Start: 600, End: 660}, slices[1])
	assert.Equal(t, Slot{Start: 660, End: 720}, slices[2])
}

func TestSliceWindowClipsTail(t *testing.T) {
	// A 50-minute tail still produces a clipped slice; a 49-minute window
	// yields nothing because the remainder is under length-10.
	slices := sliceWindow(540, 650, 60)
	require.Len(t, slices, 2)
	assert.Equal(t, Slot{Start: 600, End: 650}, slices[1])

	assert.Empty(t, sliceWindow(0, 49, 60))
}

func TestNormalizeBreaksRepairsEnd(t *testing.T) {
	repaired, err := normalizeBreaks(dto.BreaksConfig{
		Mode: BreakModeSame,
		Same: &dto.BreakWindow{Start: "12:00"},
	}, 60)
	require.NoError(t, err)
	require.NotNil(t, repaired.Same)
	assert.Equal(t, "13:00", repaired.Same.End)

	repaired, err = normalizeBreaks(dto.BreaksConfig{
		Mode: BreakModeSame,
		Same: &dto.BreakWindow{Start: "12:00", End: "12:00"},
	}, 30)
	require.NoError(t, err)
	assert.Equal(t, "12:30", repaired.Same.End)
}

func TestNormalizeBreaksPerDay(t *testing.T) {
	repaired, err := normalizeBreaks(dto.BreaksConfig{
		Mode: BreakModePerDay,
		PerDay: map[string]dto.BreakWindow{
			"Mon": {Start: "11:00", End: "10:00"},
			"Tue": {Start: "12:00", End: "12:45"},
		},
	}, 60)
	require.NoError(t, err)
	assert.Equal(t, "12:00", repaired.PerDay["Mon"].End)
	assert.Equal(t, "12:45", repaired.PerDay["Tue"].End)
}

func TestNormalizeBreaksUnknownMode(t *testing.T) {
	_, err := normalizeBreaks(dto.BreaksConfig{Mode: "lunch"}, 60)
	require.Error(t, err)
}

func TestNormalizeBreaksDoesNotMutateInput(t *testing.T) {
	original := dto.BreaksConfig{
		Mode: BreakModeSame,
		Same: &dto.BreakWindow{Start: "12:00"},
	}
	_, err := normalizeBreaks(original, 60)
	require.NoError(t, err)
	assert.Empty(t, original.Same.End)
}

func TestBuildDaySlotsNoBreak(t *testing.T) {
	payload := dto.GenerateTimetableRequest{
		Timeslots: []dto.TimeslotInput{{Day: "Mon", Start: "09:00", End: "12:00"}},
	}
	slotsByDay, dayOrder, err := buildDaySlots(payload, dto.BreaksConfig{Mode: BreakModeNone})
	require.NoError(t, err)
	assert.Equal(t, []string{"Mon"}, dayOrder)
	require.Len(t, slotsByDay["Mon"], 3)
	assert.Equal(t, "09:00-10:00", slotsByDay["Mon"][0].String())
	assert.Equal(t, "11:00-12:00", slotsByDay["Mon"][2].String())
}

func TestBuildDaySlotsDropsBreakOverlap(t *testing.T) {
	payload := dto.GenerateTimetableRequest{
		Timeslots: []dto.TimeslotInput{{Day: "Mon", Start: "09:00", End: "14:00"}},
	}
	breaks := dto.BreaksConfig{
		Mode: BreakModeSame,
		Same: &dto.BreakWindow{Start: "12:00", End: "12:30"},
	}
	slotsByDay, _, err := buildDaySlots(payload, breaks)
	require.NoError(t, err)
	for _, slot := range slotsByDay["Mon"] {
		window := Slot{Start: 720, End: 750}
		assert.False(t, slot.overlaps(window), slot.String())
	}
	// Slots touching the window at either endpoint survive.
	assert.Contains(t, slotStrings(slotsByDay["Mon"]), "11:00-12:00")
	assert.Contains(t, slotStrings(slotsByDay["Mon"]), "12:30-13:30")
}

func TestBuildDaySlotsPostBreakResumption(t *testing.T) {
	// Slices start at 10:30 and the break cuts 12:00-12:30, dropping the
	// 11:30 slice. A slice starting exactly at 12:30 must be available; the
	// post-break series starts there (the 10:30 grid also reaches it).
	payload := dto.GenerateTimetableRequest{
		Timeslots: []dto.TimeslotInput{{Day: "Mon", Start: "10:30", End: "13:30"}},
	}
	breaks := dto.BreaksConfig{
		Mode: BreakModeSame,
		Same: &dto.BreakWindow{Start: "12:00", End: "12:30"},
	}
	slotsByDay, _, err := buildDaySlots(payload, breaks)
	require.NoError(t, err)
	assert.Contains(t, slotStrings(slotsByDay["Mon"]), "12:30-13:30")
}

func TestBuildDaySlotsBreakSpansWholeDay(t *testing.T) {
	payload := dto.GenerateTimetableRequest{
		Timeslots: []dto.TimeslotInput{{Day: "Mon", Start: "09:00", End: "12:00"}},
	}
	breaks := dto.BreaksConfig{
		Mode: BreakModeSame,
		Same: &dto.BreakWindow{Start: "08:00", End: "18:00"},
	}
	_, _, err := buildDaySlots(payload, breaks)
	require.Error(t, err)
}

func TestBuildDaySlotsDeduplicatesByStart(t *testing.T) {
	payload := dto.GenerateTimetableRequest{
		Timeslots: []dto.TimeslotInput{
			{Day: "Mon", Start: "09:00", End: "11:00"},
			{Day: "Mon", Start: "09:00", End: "09:50"},
		},
	}
	slotsByDay, _, err := buildDaySlots(payload, dto.BreaksConfig{Mode: BreakModeNone})
	require.NoError(t, err)

	starts := map[int]int{}
	for _, slot := range slotsByDay["Mon"] {
		starts[slot.Start]++
	}
	for start, count := range starts {
		assert.Equal(t, 1, count, formatClock(start))
	}
	// Duplicate 09:00 starts keep the earliest end.
	assert.Equal(t, "09:00-09:50", slotsByDay["Mon"][0].String())
}

func TestBuildDaySlotsPreservesDayOrder(t *testing.T) {
	payload := dto.GenerateTimetableRequest{
		Timeslots: []dto.TimeslotInput{
			{Day: "Wed", Start: "09:00", End: "10:00"},
			{Day: "Mon", Start: "09:00", End: "10:00"},
			{Day: "Wed", Start: "14:00", End: "15:00"},
		},
	}
	_, dayOrder, err := buildDaySlots(payload, dto.BreaksConfig{Mode: BreakModeNone})
	require.NoError(t, err)
	assert.Equal(t, []string{"Wed", "Mon"}, dayOrder)
}

func slotStrings(slots []Slot) []string {
	out := make([]string, 0, len(slots))
	for _, slot := range slots {
		out = append(out, slot.String())
	}
	return out
}
