package solver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedule-hub/timetable-api/internal/dto"
)

func lectureValue(room string, day string, hour int) Placement {
	return Placement{Room: room, Day: day, Slots: hourGrid(hour)}
}

func newSearchRun(variables []*Variable, domains []*domain) *run {
	return &run{
		payload:   dto.GenerateTimetableRequest{},
		deadline:  time.Now().Add(time.Minute),
		variables: variables,
		domains:   domains,
	}
}

func TestSelectUnassignedMRV(t *testing.T) {
	variables := []*Variable{
		{ID: 0, Class: "A", Course: "X", SessionType: SessionLecture},
		{ID: 1, Class: "A", Course: "Y", SessionType: SessionLecture},
		{ID: 2, Class: "A", Course: "Z", SessionType: SessionLecture},
	}
	domains := []*domain{
		{values: []Placement{lectureValue("R1", "Mon", 9), lectureValue("R1", "Mon", 10)}},
		{values: []Placement{lectureValue("R1", "Tue", 9)}},
		{values: []Placement{lectureValue("R1", "Wed", 9), lectureValue("R1", "Wed", 10)}},
	}
	r := newSearchRun(variables, domains)

	assert.Equal(t, 1, r.selectUnassigned().ID)

	// Ties resolve to the earliest inserted variable.
	domains[1].values = append(domains[1].values, lectureValue("R2", "Tue", 9))
	assert.Equal(t, 0, r.selectUnassigned().ID)

	// An empty domain short-circuits as a dead end.
	domains[2].values = nil
	assert.Equal(t, 2, r.selectUnassigned().ID)
}

func TestSelectUnassignedSkipsPlaced(t *testing.T) {
	placed := lectureValue("R1", "Mon", 9)
	variables := []*Variable{
		{ID: 0, Class: "A", Course: "X", SessionType: SessionLecture, Placement: &placed},
		{ID: 1, Class: "A", Course: "Y", SessionType: SessionLecture},
	}
	domains := []*domain{
		{values: []Placement{lectureValue("R1", "Mon", 9)}},
		{values: []Placement{lectureValue("R1", "Tue", 9)}},
	}
	r := newSearchRun(variables, domains)
	assert.Equal(t, 1, r.selectUnassigned().ID)

	second := lectureValue("R1", "Tue", 9)
	variables[1].Placement = &second
	assert.Nil(t, r.selectUnassigned())
}

func TestOrderValuesFiltersAndSorts(t *testing.T) {
	occupied := placedVariable(0, "A", "Math", SessionLecture, "", "R1", "Mon", hourGrid(9))
	target := &Variable{ID: 1, Class: "A", Course: "Math", SessionType: SessionLecture}
	variables := []*Variable{occupied, target}
	domains := []*domain{
		{},
		{values: []Placement{
			lectureValue("R1", "Mon", 9),  // class+room clash, filtered out
			lectureValue("R2", "Mon", 10), // adjacent same course, penalised
			lectureValue("R2", "Tue", 10), // clean
		}},
	}
	r := newSearchRun(variables, domains)

	ordered := r.orderValues(target)
	require.Len(t, ordered, 2)
	assert.Equal(t, "Tue", ordered[0].Day)
	assert.Equal(t, "Mon", ordered[1].Day)
}

func TestOrderValuesPrefersLongerTuplesOnTies(t *testing.T) {
	lab := &Variable{ID: 0, Class: "A", Course: "Chem Lab", SessionType: SessionLab}
	pair := Placement{Room: "L1", Day: "Mon", Slots: hourGrid(9, 10)}
	triple := Placement{Room: "L1", Day: "Mon", Slots: hourGrid(9, 10, 11)}
	r := newSearchRun([]*Variable{lab}, []*domain{{values: []Placement{pair, triple}}})
	r.payload.RoomTypes = map[string]string{"L1": "Lab"}

	ordered := r.orderValues(lab)
	require.Len(t, ordered, 2)
	assert.Len(t, ordered[0].Slots, 3)
}

func TestForwardCheckPrunesAndRestores(t *testing.T) {
	active := &Variable{ID: 0, Class: "A", Course: "Math", SessionType: SessionLecture, Instructor: "Dr. Khan"}
	sameClass := &Variable{ID: 1, Class: "A", Course: "OS", SessionType: SessionLecture}
	sameInstructor := &Variable{ID: 2, Class: "B", Course: "DB", SessionType: SessionLecture, Instructor: "Dr. Khan"}
	variables := []*Variable{active, sameClass, sameInstructor}
	domains := []*domain{
		{values: []Placement{lectureValue("R1", "Mon", 9)}},
		{values: []Placement{lectureValue("R2", "Mon", 9), lectureValue("R2", "Mon", 10)}},
		{values: []Placement{lectureValue("R3", "Mon", 9), lectureValue("R1", "Mon", 10), lectureValue("R3", "Tue", 9)}},
	}
	r := newSearchRun(variables, domains)

	placed := lectureValue("R1", "Mon", 9)
	active.Placement = &placed
	removed := r.forwardCheck(active, placed)

	// Same class loses the overlapping hour; same instructor loses the
	// overlapping hour; nothing else is touched.
	assert.Len(t, domains[1].values, 1)
	assert.Equal(t, 10*60, domains[1].values[0].Slots[0].Start)
	assert.Len(t, domains[2].values, 2)
	require.Len(t, removed[1], 1)
	require.Len(t, removed[2], 1)

	r.restore(removed)
	assert.Len(t, domains[1].values, 2)
	assert.Len(t, domains[2].values, 3)
	assert.True(t, r.domainsValid())
}

func TestForwardCheckWipeoutDetected(t *testing.T) {
	active := &Variable{ID: 0, Class: "A", Course: "Math", SessionType: SessionLecture}
	rival := &Variable{ID: 1, Class: "A", Course: "OS", SessionType: SessionLecture}
	variables := []*Variable{active, rival}
	domains := []*domain{
		{values: []Placement{lectureValue("R1", "Mon", 9)}},
		{values: []Placement{lectureValue("R2", "Mon", 9)}},
	}
	r := newSearchRun(variables, domains)

	placed := lectureValue("R1", "Mon", 9)
	active.Placement = &placed
	removed := r.forwardCheck(active, placed)

	assert.False(t, r.domainsValid())
	r.restore(removed)
	assert.True(t, r.domainsValid())
}

func TestBacktrackCountsFailedAttempts(t *testing.T) {
	// Two same-class variables compete for a single hour: the search must
	// exhaust and report its backtracking work.
	variables := []*Variable{
		{ID: 0, Class: "A", Course: "X", SessionType: SessionLecture},
		{ID: 1, Class: "A", Course: "Y", SessionType: SessionLecture},
	}
	domains := []*domain{
		{values: []Placement{lectureValue("R1", "Mon", 9)}},
		{values: []Placement{lectureValue("R2", "Mon", 9)}},
	}
	r := newSearchRun(variables, domains)

	assert.False(t, r.backtrack())
	assert.Greater(t, r.backtracks, 0)
	assert.Nil(t, variables[0].Placement)
	assert.Nil(t, variables[1].Placement)
}
