package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TimetableStatus represents lifecycle phases for saved timetables.
type TimetableStatus string

const (
	TimetableStatusDraft     TimetableStatus = "DRAFT"
	TimetableStatusPublished TimetableStatus = "PUBLISHED"
)

// Timetable is one persisted candidate accepted from a generation run.
type Timetable struct {
	ID                   string          `db:"id" json:"id"`
	InstituteID          string          `db:"institute_id" json:"instituteId"`
	Session              string          `db:"session" json:"session"`
	Year                 int             `db:"year" json:"year"`
	InstituteTimeTableID int             `db:"institute_timetable_id" json:"instituteTimeTableID"`
	Status               TimetableStatus `db:"status" json:"status"`
	BreakStart           *string         `db:"break_start" json:"breakStart,omitempty"`
	BreakEnd             *string         `db:"break_end" json:"breakEnd,omitempty"`
	Meta                 types.JSONText  `db:"meta" json:"meta"`
	CreatedAt            time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time       `db:"updated_at" json:"updatedAt"`
}

// TimetableDetailRow is one placed slot row belonging to a saved timetable.
type TimetableDetailRow struct {
	ID             string    `db:"id" json:"id"`
	TimetableID    string    `db:"timetable_id" json:"timetableId"`
	RowID          int       `db:"row_id" json:"timeTableID"`
	RoomNumber     string    `db:"room_number" json:"roomNumber"`
	ClassName      string    `db:"class_name" json:"class"`
	Course         string    `db:"course" json:"course"`
	Day            string    `db:"day" json:"day"`
	TimeRange      string    `db:"time_range" json:"time"`
	InstructorName string    `db:"instructor_name" json:"instructorName"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// Pagination carries list metadata in the response envelope.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
}
