package dto

// BreakWindow bounds a break in "HH:MM" wire format.
type BreakWindow struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end"`
}

// BreaksConfig selects how break windows apply across the week.
type BreaksConfig struct {
	Mode   string                 `json:"mode" validate:"required,oneof=same per-day none"`
	Same   *BreakWindow           `json:"same,omitempty"`
	PerDay map[string]BreakWindow `json:"perDay,omitempty"`
}

// AssignmentInput describes one course demand for a class cohort.
type AssignmentInput struct {
	Class       string `json:"class" validate:"required"`
	Course      string `json:"course" validate:"required"`
	Type        string `json:"type" validate:"required"`
	CreditHours int    `json:"creditHours" validate:"omitempty,min=0,max=6"`
	Instructor  string `json:"instructor,omitempty"`
}

// TimeslotInput is one authored daily time window.
type TimeslotInput struct {
	Day   string `json:"day" validate:"required"`
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

// GenerateTimetableRequest is the full generation payload handed to the solver.
type GenerateTimetableRequest struct {
	InstituteID   string              `json:"instituteID" validate:"required"`
	Session       string              `json:"session" validate:"required"`
	Year          int                 `json:"year" validate:"required,min=2000,max=2100"`
	Classes       []string            `json:"classes"`
	Assignments   []AssignmentInput   `json:"assignments" validate:"required,min=1,dive"`
	Rooms         []string            `json:"rooms" validate:"required,min=1"`
	RoomTypes     map[string]string   `json:"roomTypes"`
	ClassLabRooms map[string][]string `json:"classLabRooms,omitempty"`
	Timeslots     []TimeslotInput     `json:"timeslots" validate:"required,min=1,dive"`
	Breaks        BreaksConfig        `json:"breaks" validate:"required"`
	SlotMinutes   int                 `json:"slotMinutes" validate:"omitempty,min=30,max=180"`
	Algorithms    []string            `json:"algorithms"`
}

// TimetableHeader identifies one generated candidate.
type TimetableHeader struct {
	InstituteTimeTableID int    `json:"instituteTimeTableID"`
	Session              string `json:"session"`
	Year                 int    `json:"year"`
	Visibility           bool   `json:"visibility"`
	CurrentStatus        bool   `json:"currentStatus"`
	BreakStart           string `json:"breakStart,omitempty"`
	BreakEnd             string `json:"breakEnd,omitempty"`
}

// TimetableDetail is one placed slot row.
type TimetableDetail struct {
	TimeTableID    int    `json:"timeTableID"`
	RoomNumber     string `json:"roomNumber"`
	Class          string `json:"class"`
	Course         string `json:"course"`
	Day            string `json:"day"`
	Time           string `json:"time"`
	InstructorName string `json:"instructorName"`
}

// SolverStats summarises one solver run.
type SolverStats struct {
	ConstraintsChecked int `json:"constraintsChecked"`
	Backtracks         int `json:"backtracks"`
	VariablesAssigned  int `json:"variablesAssigned"`
}

// TimetableCandidate is one complete conflict-free timetable.
type TimetableCandidate struct {
	Header  TimetableHeader   `json:"header"`
	Details []TimetableDetail `json:"details"`
	Stats   SolverStats       `json:"stats"`
}

// GenerateTimetableResponse returns all generated candidates. GenerationID
// references the in-memory generation so one candidate can be saved later.
type GenerateTimetableResponse struct {
	Candidates   []TimetableCandidate `json:"candidates"`
	GenerationID string               `json:"generationId,omitempty"`
}

// UnassignedVariable describes a scheduling unit left without a placement.
type UnassignedVariable struct {
	Class  string `json:"class"`
	Course string `json:"course"`
	Type   string `json:"type"`
}

// FailureStats carries solver counters into a failure payload.
type FailureStats struct {
	TotalVariables     int `json:"totalVariables"`
	AssignedVariables  int `json:"assignedVariables"`
	ConstraintsChecked int `json:"constraintsChecked"`
	Backtracks         int `json:"backtracks"`
}

// FailureDiagnostics is the structured payload attached to a solver failure.
type FailureDiagnostics struct {
	Unassigned   []UnassignedVariable `json:"unassigned,omitempty"`
	EmptyDomains []UnassignedVariable `json:"emptyDomains,omitempty"`
	Seed         int64                `json:"seed"`
	Stats        *FailureStats        `json:"stats,omitempty"`
	Hint         string               `json:"hint,omitempty"`
}

// SaveTimetableRequest persists one candidate of a cached generation.
type SaveTimetableRequest struct {
	GenerationID   string `json:"generationId" validate:"required"`
	CandidateIndex int    `json:"candidateIndex" validate:"min=0"`
}

// TimetableQuery filters stored timetables.
type TimetableQuery struct {
	InstituteID string `form:"instituteId" json:"instituteId"`
	Session     string `form:"session" json:"session"`
	Year        int    `form:"year" json:"year"`
}
