package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wricardo/micromouse/mouse/engine"
)

var (
	ErrConfigNotFound  = errors.New("configuration not found")
	ErrSessionNotFound = errors.New("session not found")
)

// runServiceImpl serializes engine access behind one lock per service
type runServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewRunService wires sessions and mazes into a RunService
func NewRunService(sessions SessionManager, configs ConfigManager) RunService {
	return &runServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// configID maps a maze's display name back to its file id so responses
// always carry something CreateSession accepts
func (s *runServiceImpl) configID(name string) string {
	if infos, err := s.configs.ListConfigs(); err == nil {
		for _, info := range infos {
			if info.Name == name {
				return info.ConfigID
			}
		}
	}
	if name == "" {
		return "default"
	}
	return name
}

// resolveConfig loads the named maze, or the default for "". A missing maze
// lists the ids that do exist.
func (s *runServiceImpl) resolveConfig(name string) (*engine.MazeConfig, error) {
	if name == "" {
		return s.configs.GetDefault(), nil
	}

	c, err := s.configs.LoadConfig(name)
	switch {
	case err == nil:
		return c, nil
	case !errors.Is(err, ErrConfigNotFound):
		return nil, fmt.Errorf("failed to load config %s: %w", name, err)
	}

	infos, listErr := s.configs.ListConfigs()
	if listErr != nil || len(infos) == 0 {
		return nil, fmt.Errorf("config '%s' not found, see /api/configs: %w", name, err)
	}
	ids := make([]string, len(infos))
	for i, info := range infos {
		ids[i] = info.ConfigID
	}
	return nil, fmt.Errorf("config '%s' not found. Available configs: %v: %w", name, ids, err)
}

func (s *runServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	if configID == "" {
		configID = s.configID(sess.Config.Name)
	}
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		RunState:       sess.Engine.GetState(),
		MazeConfig:     sess.Config,
	}
}

// lookup fetches a session, keeping ErrSessionNotFound visible to errors.Is
func (s *runServiceImpl) lookup(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	return sess, nil
}

// CreateSession starts a fresh run on the named maze
func (s *runServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	config, err := s.resolveConfig(configName)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	sessionsActive.Set(float64(len(s.sessions.List())))

	log.Printf("[SESSION] created id=%s config=%s", sess.ID, config.Name)
	return s.sessionInfo(sess, configName), nil
}

// GetSession describes a session and marks it as used. Touch writes the
// session, so it takes the write lock like every other path that calls it.
func (s *runServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	s.sessions.Touch(sessionID)

	return s.sessionInfo(sess, ""), nil
}

func (s *runServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, ""))
	}
	return result, nil
}

// DeleteSession drops a session from memory and from the store
func (s *runServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	sessionsActive.Set(float64(len(s.sessions.List())))
	return nil
}

// Step takes up to steps decisions; steps <= 0 means one
func (s *runServiceImpl) Step(ctx context.Context, sessionID string, steps int, reset bool) (*StepResponse, error) {
	if steps <= 0 {
		steps = 1
	}
	return s.drive(ctx, "service.Step", sessionID, steps, reset)
}

// RunToCompletion steps until the run ends or the configured step limit is hit
func (s *runServiceImpl) RunToCompletion(ctx context.Context, sessionID string, reset bool) (*StepResponse, error) {
	return s.drive(ctx, "service.RunToCompletion", sessionID, 0, reset)
}

// drive is shared by Step and RunToCompletion; steps == 0 runs to the end
func (s *runServiceImpl) drive(ctx context.Context, op, sessionID string, steps int, reset bool) (*StepResponse, error) {
	start := time.Now()
	defer func() { stepCallDuration.Observe(time.Since(start).Seconds()) }()

	ctx, span := getTracer().Start(ctx, op,
		trace.WithAttributes(
			attribute.String("session_id", sessionID),
			attribute.Int("requested_steps", steps),
			attribute.Bool("reset", reset),
		),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session lookup failed")
		return nil, err
	}
	s.sessions.Touch(sessionID)

	result := &StepResponse{
		RequestedSteps: steps,
		Events:         make([]RunEvent, 0),
		Success:        true,
	}

	if reset {
		state := sess.Engine.Reset()
		result.Events = append(result.Events, RunEvent{
			Type:      "reset",
			Message:   "Run reset to the start cell",
			Timestamp: time.Now(),
			Position:  state.Head,
		})
	}

	if steps > engine.MaxBulkSteps {
		result.Truncated = true
		result.Limit = engine.MaxBulkSteps
		steps = engine.MaxBulkSteps
	}

	before := sess.Engine.GetState()
	result.StartHead = before.Head
	result.StartPhase = before.Phase

	if before.Phase.IsTerminal() {
		result.Success = false
		result.StopReasonCode = "run_over"
		result.StoppedReason = fmt.Sprintf("run is already %s; reset to start again", before.Phase)
	} else {
		results, runErr := sess.Engine.Run(ctx, steps)
		result.Steps = results
		result.StepsExecuted = len(results)

		for _, r := range results {
			stepsTotal.WithLabelValues(string(r.Outcome)).Inc()
			if len(r.Route) > 0 {
				routeLength.Observe(float64(len(r.Route)))
			}
			result.Events = append(result.Events, eventsFor(r)...)
		}

		switch {
		case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
			result.Success = false
			result.StopReasonCode = "canceled"
			result.StoppedReason = runErr.Error()
		case runErr != nil:
			result.Success = false
			result.StopReasonCode = "failed"
			result.StoppedReason = runErr.Error()
		}
	}

	after := sess.Engine.GetState()
	result.RunState = after
	result.EndHead = after.Head
	result.EndPhase = after.Phase
	result.StuckDelta = after.StuckCount - before.StuckCount
	result.Message = after.Message

	if result.StopReasonCode == "" {
		switch {
		case after.Phase == engine.PhaseFinished:
			result.StopReasonCode = "finished"
		case after.Phase == engine.PhaseReturning && before.Phase == engine.PhaseExploring:
			result.StopReasonCode = "returning"
		}
	}
	if after.Phase.IsTerminal() && !before.Phase.IsTerminal() {
		runsTotal.WithLabelValues(string(after.Phase)).Inc()
	}

	span.SetAttributes(
		attribute.Int("steps_executed", result.StepsExecuted),
		attribute.String("phase", string(after.Phase)),
		attribute.Int("stuck_count", after.StuckCount),
	)
	if !result.Success {
		span.SetStatus(codes.Error, result.StoppedReason)
	} else {
		span.SetStatus(codes.Ok, "stepped")
	}

	log.Printf("[STEP] session=%s steps=%d phase=%s head=%s stuck=%d", sessionID, result.StepsExecuted, after.Phase, after.Head, after.StuckCount)

	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: Failed to persist session %s after step: %v", sessionID, err)
	}

	return result, nil
}

// eventsFor turns notable steps into events
func eventsFor(r engine.StepResult) []RunEvent {
	now := time.Now()
	var events []RunEvent

	switch r.Outcome {
	case engine.OutcomeStuck:
		events = append(events, RunEvent{Type: "stuck", Message: r.Message, Timestamp: now, Position: r.From})
	case engine.OutcomeArrived:
		events = append(events, RunEvent{Type: "goal", Message: fmt.Sprintf("Goal reached at %s", r.To), Timestamp: now, Position: r.To})
	case engine.OutcomeFailed:
		events = append(events, RunEvent{Type: "failed", Message: r.Message, Timestamp: now, Position: r.From})
	}

	switch r.Phase {
	case engine.PhaseReturning:
		if r.Outcome == engine.OutcomeArrived {
			events = append(events, RunEvent{Type: "returning", Message: r.Message, Timestamp: now, Position: r.To})
		}
	case engine.PhaseFinished:
		events = append(events, RunEvent{Type: "finished", Message: r.Message, Timestamp: now, Position: r.To})
	}

	return events
}

// Reset puts the robot back on its start cell with an empty map
func (s *runServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.RunState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	s.sessions.Touch(sessionID)
	state := sess.Engine.Reset()

	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: Failed to persist session %s after reset: %v", sessionID, err)
	}

	return state, nil
}

func (s *runServiceImpl) GetRunState(ctx context.Context, sessionID string) (*engine.RunState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	s.sessions.Touch(sessionID)
	return sess.Engine.GetState(), nil
}

// GetStepHistory pages through the decision log, newest first unless
// opts.Order is asc
func (s *runServiceImpl) GetStepHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	return paginate(sess.Engine.GetStepHistory(), opts), nil
}

// paginate slices history into one page. Out of range pages come back
// empty with the totals still filled in.
func paginate(history []engine.StepHistoryEntry, opts HistoryOptions) *HistoryResponse {
	page, limit := max(opts.Page, 1), opts.Limit
	switch {
	case limit <= 0:
		limit = 20
	case limit > 100:
		limit = 100
	}

	ordered := history
	if opts.Order != "asc" {
		ordered = make([]engine.StepHistoryEntry, len(history))
		for i, h := range history {
			ordered[len(history)-1-i] = h
		}
	}

	total := len(ordered)
	pages := max((total+limit-1)/limit, 1)
	from := min((page-1)*limit, total)
	to := min(from+limit, total)

	return &HistoryResponse{
		Steps:       append([]engine.StepHistoryEntry{}, ordered[from:to]...),
		TotalSteps:  total,
		Page:        page,
		PageSize:    limit,
		TotalPages:  pages,
		HasNext:     page < pages,
		HasPrevious: page > 1,
	}
}

// Render draws the robot's current knowledge of the maze
func (s *runServiceImpl) Render(ctx context.Context, sessionID string) (*RenderResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	return &RenderResponse{
		SessionID: sess.ID,
		Phase:     sess.Engine.GetPhase(),
		Lines:     sess.Engine.Render(),
		Legend:    renderLegend,
	}, nil
}

func (s *runServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

func (s *runServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.MazeConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig validates and stores a maze under configName
func (s *runServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.MazeConfig) error {
	return s.configs.SaveConfig(configName, config)
}
