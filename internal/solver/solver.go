package solver

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/schedule-hub/timetable-api/internal/dto"
	appErrors "github.com/schedule-hub/timetable-api/pkg/errors"
)

// DefaultSeeds are the fixed seeds the candidate driver runs with.
var DefaultSeeds = []int64{42, 1337, 2025}

// DefaultMaxRunTime bounds a single seed's search.
const DefaultMaxRunTime = 8 * time.Second

const failureHint = "Solver timed out or insufficient resources. Try: adding more rooms, extending time windows, reducing sessions, or adjusting break times."

const fallbackInstructor = "Instructor"

// Config governs the candidate driver.
type Config struct {
	MaxRunTime time.Duration
	Seeds      []int64
}

func (c Config) withDefaults() Config {
	if c.MaxRunTime <= 0 {
		c.MaxRunTime = DefaultMaxRunTime
	}
	if len(c.Seeds) == 0 {
		c.Seeds = DefaultSeeds
	}
	return c
}

// run holds the state of one seeded solver attempt. Variables and domains are
// owned exclusively by the run for its lifetime.
type run struct {
	payload  dto.GenerateTimetableRequest
	breaks   dto.BreaksConfig
	seed     int64
	deadline time.Time

	variables []*Variable
	domains   []*domain

	constraintsChecked int
	backtracks         int
	timedOut           bool
}

// newRun builds variables and domains for one seed. The payload's breaks must
// already be normalized.
func newRun(payload dto.GenerateTimetableRequest, breaks dto.BreaksConfig, seed int64, budget time.Duration) (*run, error) {
	if len(payload.Rooms) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no rooms available for scheduling")
	}
	variables, err := buildVariables(payload.Assignments)
	if err != nil {
		return nil, err
	}
	if len(variables) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no schedulable assignments in payload")
	}
	slotsByDay, dayOrder, err := buildDaySlots(payload, breaks)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	return &run{
		payload:   payload,
		breaks:    breaks,
		seed:      seed,
		deadline:  time.Now().Add(budget),
		variables: variables,
		domains:   buildDomains(variables, slotsByDay, dayOrder, payload, rng),
	}, nil
}

func (r *run) solve() bool {
	return r.backtrack()
}

func (r *run) assignedCount() int {
	count := 0
	for _, variable := range r.variables {
		if variable.Placement != nil {
			count++
		}
	}
	return count
}

// candidate converts a complete assignment into the wire candidate: one
// detail row per placed slot, dense 1-based timeTableID, header derived from
// the request identity and seed.
func (r *run) candidate() dto.TimetableCandidate {
	var details []dto.TimetableDetail
	rowID := 0
	for _, variable := range r.variables {
		if variable.Placement == nil {
			continue
		}
		instructor := variable.Instructor
		if instructor == "" {
			instructor = fallbackInstructor
		}
		for _, slot := range variable.Placement.Slots {
			rowID++
			details = append(details, dto.TimetableDetail{
				TimeTableID:    rowID,
				RoomNumber:     variable.Placement.Room,
				Class:          variable.Class,
				Course:         variable.Course,
				Day:            variable.Placement.Day,
				Time:           slot.String(),
				InstructorName: instructor,
			})
		}
	}

	header := dto.TimetableHeader{
		InstituteTimeTableID: timetableIdentity(r.payload, r.seed),
		Session:              r.payload.Session,
		Year:                 r.payload.Year,
		Visibility:           true,
		CurrentStatus:        false,
	}
	if r.breaks.Mode == BreakModeSame && r.breaks.Same != nil {
		header.BreakStart = r.breaks.Same.Start
		header.BreakEnd = r.breaks.Same.End
	}

	return dto.TimetableCandidate{
		Header:  header,
		Details: details,
		Stats: dto.SolverStats{
			ConstraintsChecked: r.constraintsChecked,
			Backtracks:         r.backtracks,
			VariablesAssigned:  r.assignedCount(),
		},
	}
}

// failure builds the structured diagnostic for an exhausted or timed-out run:
// the first unassigned variables, domain wipeout samples, and counters.
func (r *run) failure() *appErrors.Error {
	var unassigned []dto.UnassignedVariable
	var emptyDomains []dto.UnassignedVariable
	for _, variable := range r.variables {
		if variable.Placement != nil {
			continue
		}
		entry := dto.UnassignedVariable{Class: variable.Class, Course: variable.Course, Type: variable.SessionType}
		if len(unassigned) < 10 {
			unassigned = append(unassigned, entry)
		}
		if r.domains[variable.ID].isEmpty() && len(emptyDomains) < 5 {
			emptyDomains = append(emptyDomains, entry)
		}
	}

	diagnostics := dto.FailureDiagnostics{
		Unassigned:   unassigned,
		EmptyDomains: emptyDomains,
		Seed:         r.seed,
		Stats: &dto.FailureStats{
			TotalVariables:     len(r.variables),
			AssignedVariables:  r.assignedCount(),
			ConstraintsChecked: r.constraintsChecked,
			Backtracks:         r.backtracks,
		},
		Hint: failureHint,
	}

	base := appErrors.ErrUnsatisfiable
	if r.timedOut {
		base = appErrors.ErrSolverTimeout
	}
	message := fmt.Sprintf("solver failed to find a complete assignment: %d of %d variables placed",
		r.assignedCount(), len(r.variables))
	return appErrors.WithDetails(appErrors.Clone(base, message), diagnostics)
}

// Generate runs the solver once per configured seed and assembles the
// candidate list. Runs are independent; the first failure fails the request.
func Generate(payload dto.GenerateTimetableRequest, cfg Config, logger *zap.Logger) (*dto.GenerateTimetableResponse, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	breaks, err := normalizeBreaks(payload.Breaks, slotLength(payload))
	if err != nil {
		return nil, err
	}

	candidates := make([]dto.TimetableCandidate, 0, len(cfg.Seeds))
	for _, seed := range cfg.Seeds {
		r, err := newRun(payload, breaks, seed, cfg.MaxRunTime)
		if err != nil {
			return nil, err
		}
		logger.Debug("solver run starting",
			zap.Int64("seed", seed),
			zap.Int("variables", len(r.variables)),
			zap.Int("rooms", len(payload.Rooms)),
		)
		if !r.solve() {
			logger.Warn("solver run failed",
				zap.Int64("seed", seed),
				zap.Bool("timedOut", r.timedOut),
				zap.Int("assigned", r.assignedCount()),
				zap.Int("backtracks", r.backtracks),
			)
			return nil, r.failure()
		}
		candidates = append(candidates, r.candidate())
	}
	return &dto.GenerateTimetableResponse{Candidates: candidates}, nil
}

// timetableIdentity derives a stable candidate identifier in
// [100000, 1000000) from the request identity and seed.
func timetableIdentity(payload dto.GenerateTimetableRequest, seed int64) int {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s_%s_%d_%d", payload.InstituteID, payload.Session, payload.Year, seed)
	return int(h.Sum64()%900000) + 100000
}
