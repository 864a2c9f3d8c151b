package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/schedule-hub/timetable-api/internal/dto"
	"github.com/schedule-hub/timetable-api/internal/models"
	"github.com/schedule-hub/timetable-api/internal/solver"
	appErrors "github.com/schedule-hub/timetable-api/pkg/errors"
	"github.com/schedule-hub/timetable-api/pkg/export"
)

type timetableRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, timetable *models.Timetable) error
	InsertDetails(ctx context.Context, exec sqlx.ExtContext, details []models.TimetableDetailRow) error
	ListByInstitute(ctx context.Context, instituteID, session string, year int) ([]models.Timetable, error)
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	ListDetails(ctx context.Context, timetableID string) ([]models.TimetableDetailRow, error)
	Delete(ctx context.Context, id string) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// TimetableService orchestrates generation, caching, persistence, and export
// of timetables. The solver itself stays pure; everything with I/O lives here.
type TimetableService struct {
	repo      timetableRepository
	tx        txProvider
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	store     *generationStore
	solverCfg solver.Config
}

// TimetableServiceConfig governs service behaviour.
type TimetableServiceConfig struct {
	MaxRunTime    time.Duration
	GenerationTTL time.Duration
	CacheTTL      time.Duration
}

// NewTimetableService wires timetable dependencies.
func NewTimetableService(
	repo timetableRepository,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableServiceConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.GenerationTTL <= 0 {
		cfg.GenerationTTL = 30 * time.Minute
	}
	return &TimetableService{
		repo:      repo,
		tx:        tx,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		store:     newGenerationStore(cfg.GenerationTTL),
		solverCfg: solver.Config{MaxRunTime: cfg.MaxRunTime},
	}
}

// Generate runs the candidate driver for the payload. Identical payloads are
// served from cache within the cache TTL; cache failures degrade to a live
// solve. Every response is registered in the generation store so one of its
// candidates can be saved later.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}

	start := time.Now()
	cacheKey := generationCacheKey(req)

	var cached dto.GenerateTimetableResponse
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		cached.GenerationID = s.store.Save(req, cached.Candidates)
		s.logger.Debug("generation served from cache", zap.String("generationId", cached.GenerationID))
		return &cached, nil
	}

	resp, err := solver.Generate(req, s.solverCfg, s.logger)
	duration := time.Since(start)
	if err != nil {
		s.metrics.ObserveSolverRun(solverOutcome(err), duration, nil)
		return nil, err
	}
	s.metrics.ObserveSolverRun(SolverOutcomeSolved, duration, resp.Candidates)

	resp.GenerationID = s.store.Save(req, resp.Candidates)
	_ = s.cache.Set(ctx, cacheKey, dto.GenerateTimetableResponse{Candidates: resp.Candidates}, 0)

	s.logger.Info("timetable generated",
		zap.String("generationId", resp.GenerationID),
		zap.String("instituteId", req.InstituteID),
		zap.Int("candidates", len(resp.Candidates)),
		zap.Duration("duration", duration),
	)
	return resp, nil
}

// Save persists one candidate of a cached generation in a single transaction.
func (s *TimetableService) Save(ctx context.Context, req dto.SaveTimetableRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save payload")
	}
	generation, ok := s.store.Get(req.GenerationID)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrNotFound, "generation not found or expired")
	}
	if req.CandidateIndex >= len(generation.Candidates) {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("candidateIndex %d out of range", req.CandidateIndex))
	}
	if s.tx == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	candidate := generation.Candidates[req.CandidateIndex]

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	metaBytes, marshalErr := json.Marshal(map[string]any{
		"stats":      candidate.Stats,
		"seedIndex":  req.CandidateIndex,
		"algorithm":  "csp_backtracking",
		"generated":  generation.RequestedAt,
		"generation": req.GenerationID,
	})
	if marshalErr != nil {
		err = appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode timetable metadata")
		return "", err
	}

	record := &models.Timetable{
		InstituteID:          generation.Request.InstituteID,
		Session:              candidate.Header.Session,
		Year:                 candidate.Header.Year,
		InstituteTimeTableID: candidate.Header.InstituteTimeTableID,
		Status:               models.TimetableStatusDraft,
		Meta:                 types.JSONText(metaBytes),
	}
	if candidate.Header.BreakStart != "" {
		breakStart, breakEnd := candidate.Header.BreakStart, candidate.Header.BreakEnd
		record.BreakStart = &breakStart
		record.BreakEnd = &breakEnd
	}

	if err = s.repo.Create(ctx, tx, record); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable")
		return "", err
	}

	details := make([]models.TimetableDetailRow, 0, len(candidate.Details))
	for _, row := range candidate.Details {
		details = append(details, models.TimetableDetailRow{
			TimetableID:    record.ID,
			RowID:          row.TimeTableID,
			RoomNumber:     row.RoomNumber,
			ClassName:      row.Class,
			Course:         row.Course,
			Day:            row.Day,
			TimeRange:      row.Time,
			InstructorName: row.InstructorName,
		})
	}
	if err = s.repo.InsertDetails(ctx, tx, details); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable details")
		return "", err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable transaction")
		return "", err
	}
	return record.ID, nil
}

// List returns saved timetables for the query.
func (s *TimetableService) List(ctx context.Context, query dto.TimetableQuery) ([]models.Timetable, error) {
	if query.InstituteID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "instituteId is required")
	}
	list, err := s.repo.ListByInstitute(ctx, query.InstituteID, query.Session, query.Year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	return list, nil
}

// GetDetails returns the slot rows for a stored timetable.
func (s *TimetableService) GetDetails(ctx context.Context, timetableID string) ([]models.TimetableDetailRow, error) {
	if timetableID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "timetable id is required")
	}
	if _, err := s.repo.FindByID(ctx, timetableID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	details, err := s.repo.ListDetails(ctx, timetableID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable details")
	}
	return details, nil
}

// Delete removes a draft timetable.
func (s *TimetableService) Delete(ctx context.Context, timetableID string) error {
	record, err := s.repo.FindByID(ctx, timetableID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	if record.Status != models.TimetableStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, "only draft timetables can be deleted")
	}
	if err := s.repo.Delete(ctx, timetableID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	return nil
}

// Export renders a stored timetable as CSV or PDF bytes.
func (s *TimetableService) Export(ctx context.Context, timetableID, format string) ([]byte, string, error) {
	details, err := s.GetDetails(ctx, timetableID)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Day", "Time", "Class", "Course", "Room", "Instructor"},
	}
	for _, row := range details {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Day":        row.Day,
			"Time":       row.TimeRange,
			"Class":      row.ClassName,
			"Course":     row.Course,
			"Room":       row.RoomNumber,
			"Instructor": row.InstructorName,
		})
	}

	switch format {
	case "csv":
		payload, err := export.NewCSVExporter().Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case "pdf", "":
		payload, err := export.NewPDFExporter().Render(dataset, "Weekly Timetable")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func solverOutcome(err error) string {
	appErr := appErrors.FromError(err)
	switch appErr.Code {
	case appErrors.ErrSolverTimeout.Code:
		return SolverOutcomeTimeout
	case appErrors.ErrUnsatisfiable.Code:
		return SolverOutcomeUnsatisfiable
	default:
		return SolverOutcomeInvalid
	}
}

// generationCacheKey hashes the canonical JSON form of the payload.
func generationCacheKey(req dto.GenerateTimetableRequest) string {
	payload, err := json.Marshal(req)
	if err != nil {
		return "timetable:gen:unkeyed"
	}
	sum := sha256.Sum256(payload)
	return "timetable:gen:" + hex.EncodeToString(sum[:])
}

// --- Generation store ---

type generation struct {
	Request     dto.GenerateTimetableRequest
	Candidates  []dto.TimetableCandidate
	RequestedAt time.Time
}

// generationStore keeps recent generations in memory so a chosen candidate
// can be saved without re-solving. Entries expire after the TTL.
type generationStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]generation
}

func newGenerationStore(ttl time.Duration) *generationStore {
	return &generationStore{
		ttl:   ttl,
		items: make(map[string]generation),
	}
}

func (s *generationStore) Save(req dto.GenerateTimetableRequest, candidates []dto.TimetableCandidate) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.items[id] = generation{Request: req, Candidates: candidates, RequestedAt: time.Now().UTC()}
	s.mu.Unlock()
	return id
}

func (s *generationStore) Get(id string) (generation, bool) {
	s.mu.RLock()
	item, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return generation{}, false
	}
	if time.Since(item.RequestedAt) > s.ttl {
		s.Delete(id)
		return generation{}, false
	}
	return item, true
}

func (s *generationStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
