package solver

import (
	"fmt"
	"strings"

	"github.com/schedule-hub/timetable-api/internal/dto"
	appErrors "github.com/schedule-hub/timetable-api/pkg/errors"
)

// Session types produced by the variable builder.
const (
	SessionLecture = "Lecture"
	SessionLab     = "Lab"
)

// Room kinds understood by the domain builder.
const (
	RoomKindClass = "Class"
	RoomKindLab   = "Lab"
)

// Placement is one candidate assignment for a variable.
type Placement struct {
	Room  string
	Day   string
	Slots []Slot
}

// Variable is one atomic scheduling unit. A lecture needs one slot; a lab
// needs a tuple of consecutive slots.
type Variable struct {
	ID          int
	Class       string
	Course      string
	SessionType string
	Instructor  string
	Placement   *Placement
}

func (v *Variable) String() string {
	return fmt.Sprintf("%s/%s/%s", v.Class, v.Course, v.SessionType)
}

// buildVariables expands assignments into scheduling units. A lecture with n
// credit hours yields n variables; a lab yields exactly one regardless of
// credit hours. IDs are dense and follow input order.
func buildVariables(assignments []dto.AssignmentInput) ([]*Variable, error) {
	var variables []*Variable
	nextID := 0
	for idx, assignment := range assignments {
		if assignment.Class == "" || assignment.Course == "" || assignment.Type == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("assignment %d is missing class, course, or type", idx))
		}
		sessionType := normalizeSessionType(assignment.Type)
		if sessionType == SessionLab {
			variables = append(variables, &Variable{
				ID:          nextID,
				Class:       assignment.Class,
				Course:      assignment.Course,
				SessionType: SessionLab,
				Instructor:  assignment.Instructor,
			})
			nextID++
			continue
		}
		sessions := assignment.CreditHours
		if sessions < 1 {
			sessions = 1
		}
		for i := 0; i < sessions; i++ {
			variables = append(variables, &Variable{
				ID:          nextID,
				Class:       assignment.Class,
				Course:      assignment.Course,
				SessionType: SessionLecture,
				Instructor:  assignment.Instructor,
			})
			nextID++
		}
	}
	return variables, nil
}

func normalizeSessionType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "lab", "laboratory":
		return SessionLab
	default:
		return SessionLecture
	}
}

func roomKind(roomTypes map[string]string, room string) string {
	if kind, ok := roomTypes[room]; ok && kind == RoomKindLab {
		return RoomKindLab
	}
	return RoomKindClass
}
