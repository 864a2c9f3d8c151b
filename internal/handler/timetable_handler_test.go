package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedule-hub/timetable-api/internal/dto"
	"github.com/schedule-hub/timetable-api/internal/models"
	appErrors "github.com/schedule-hub/timetable-api/pkg/errors"
)

type timetableServiceStub struct {
	generateResp *dto.GenerateTimetableResponse
	generateErr  error
	saveID       string
	saveErr      error
	listResp     []models.Timetable
	details      []models.TimetableDetailRow
	deleteErr    error
}

func (s *timetableServiceStub) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	return s.generateResp, s.generateErr
}

func (s *timetableServiceStub) Save(ctx context.Context, req dto.SaveTimetableRequest) (string, error) {
	return s.saveID, s.saveErr
}

func (s *timetableServiceStub) List(ctx context.Context, query dto.TimetableQuery) ([]models.Timetable, error) {
	return s.listResp, nil
}

func (s *timetableServiceStub) GetDetails(ctx context.Context, id string) ([]models.TimetableDetailRow, error) {
	return s.details, nil
}

func (s *timetableServiceStub) Delete(ctx context.Context, id string) error {
	return s.deleteErr
}

func (s *timetableServiceStub) Export(ctx context.Context, id, format string) ([]byte, string, error) {
	return []byte("Day,Time\n"), "text/csv", nil
}

func newHandlerRouter(stub *timetableServiceStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &TimetableHandler{service: stub}
	r := gin.New()
	r.POST("/timetables/generate", h.Generate)
	r.POST("/timetables/save", h.Save)
	r.GET("/timetables", h.List)
	r.GET("/timetables/:id/details", h.Details)
	r.GET("/timetables/:id/export", h.Export)
	r.DELETE("/timetables/:id", h.Delete)
	return r
}

func generatePayload(t *testing.T) *bytes.Buffer {
	t.Helper()
	payload, err := json.Marshal(dto.GenerateTimetableRequest{
		InstituteID: "inst-1",
		Session:     "Fall",
		Year:        2026,
		Assignments: []dto.AssignmentInput{{Class: "A", Course: "M", Type: "Lecture", CreditHours: 1}},
		Rooms:       []string{"R1"},
		Timeslots:   []dto.TimeslotInput{{Day: "Mon", Start: "09:00", End: "10:00"}},
		Breaks:      dto.BreaksConfig{Mode: "none"},
	})
	require.NoError(t, err)
	return bytes.NewBuffer(payload)
}

func TestTimetableHandlerGenerateSuccess(t *testing.T) {
	stub := &timetableServiceStub{
		generateResp: &dto.GenerateTimetableResponse{
			GenerationID: "gen-1",
			Candidates:   []dto.TimetableCandidate{{Header: dto.TimetableHeader{Session: "Fall"}}},
		},
	}
	r := newHandlerRouter(stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/timetables/generate", generatePayload(t))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gen-1")
}

func TestTimetableHandlerGenerateBadJSON(t *testing.T) {
	r := newHandlerRouter(&timetableServiceStub{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/timetables/generate", bytes.NewBufferString("{not-json"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerGenerateSolverFailure(t *testing.T) {
	stub := &timetableServiceStub{
		generateErr: appErrors.WithDetails(appErrors.ErrUnsatisfiable, dto.FailureDiagnostics{Hint: "add rooms"}),
	}
	r := newHandlerRouter(stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/timetables/generate", generatePayload(t))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "UNSATISFIABLE")
	assert.Contains(t, w.Body.String(), "add rooms")
}

func TestTimetableHandlerSave(t *testing.T) {
	stub := &timetableServiceStub{saveID: "tt-1"}
	r := newHandlerRouter(stub)

	payload, _ := json.Marshal(dto.SaveTimetableRequest{GenerationID: "gen-1"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/timetables/save", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "tt-1")
}

func TestTimetableHandlerDeleteNoContent(t *testing.T) {
	r := newHandlerRouter(&timetableServiceStub{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/timetables/tt-1", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestTimetableHandlerExport(t *testing.T) {
	r := newHandlerRouter(&timetableServiceStub{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/timetables/tt-1/export?format=csv", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
}
