package interview

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aihr-dev/interviewd/pkg/core"
)

// Transcriber converts a raw candidate answer into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Analyzer scores a transcript against the vacancy profile.
type Analyzer interface {
	Analyze(ctx context.Context, transcript string, profile VacancyProfile, history []Assessment) (*Assessment, error)
}

// RoomProvisioner allocates the real-time room a session runs in.
type RoomProvisioner interface {
	Provision(ctx context.Context, sessionID string) (*Room, error)
}

// Config tunes the orchestrator.
type Config struct {
	Policy PolicyConfig
	// TurnTimeout bounds each adapter call within a turn. A timeout surfaces
	// as the failing adapter's error kind. <= 0 disables the bound.
	TurnTimeout time.Duration
}

// Dependencies wires an Orchestrator.
type Dependencies struct {
	Store       Store
	Transcriber Transcriber
	Analyzer    Analyzer
	Planner     QuestionPlanner
	Rooms       RoomProvisioner
	Logger      *slog.Logger
	Config      Config
	Now         func() time.Time
	NewID       func() string
}

// Orchestrator owns the interview state machine. It is the exclusive writer
// of session state: each turn runs load -> mutate -> save under a per-session
// token, and sessions are fully independent of each other.
type Orchestrator struct {
	store       Store
	transcriber Transcriber
	analyzer    Analyzer
	planner     QuestionPlanner
	rooms       RoomProvisioner
	logger      *slog.Logger
	cfg         Config
	guard       *turnGuard
	now         func() time.Time
	newID       func() string
}

// New validates the wiring and returns an orchestrator.
func New(deps Dependencies) (*Orchestrator, error) {
	if deps.Store == nil {
		return nil, errors.New("store is required")
	}
	if deps.Transcriber == nil {
		return nil, errors.New("transcriber is required")
	}
	if deps.Analyzer == nil {
		return nil, errors.New("analyzer is required")
	}
	if deps.Planner == nil {
		deps.Planner = ScriptedPlanner{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.Config.Policy == (PolicyConfig{}) {
		deps.Config.Policy = DefaultPolicyConfig()
	}
	return &Orchestrator{
		store:       deps.Store,
		transcriber: deps.Transcriber,
		analyzer:    deps.Analyzer,
		planner:     deps.Planner,
		rooms:       deps.Rooms,
		logger:      deps.Logger,
		cfg:         deps.Config,
		guard:       newTurnGuard(),
		now:         deps.Now,
		newID:       deps.NewID,
	}, nil
}

// TurnInput is one candidate submission. Audio is transcribed; Text is used
// verbatim when the transport already has text. Done is the candidate's
// explicit completion signal.
type TurnInput struct {
	Audio []byte
	Text  string
	Done  bool
}

// TurnResult is the outcome of a successful turn: either the next question
// or the final report, never both.
type TurnResult struct {
	Question string
	Report   *Report
	Decision Decision
}

// CreateSession provisions a room, allocates the session, asks the opening
// question, and persists everything. Creation is all-or-nothing: a
// provisioning or persistence failure leaves no partial session behind.
func (o *Orchestrator) CreateSession(ctx context.Context, candidateRef, vacancyRef string, profile VacancyProfile) (*Session, *Room, error) {
	if strings.TrimSpace(candidateRef) == "" {
		return nil, nil, core.NewInvalidRequestErrorWithParam("candidate reference is required", "candidate")
	}
	if strings.TrimSpace(vacancyRef) == "" {
		return nil, nil, core.NewInvalidRequestErrorWithParam("vacancy reference is required", "vacancy")
	}

	id := o.newID()

	var room *Room
	if o.rooms != nil {
		var err error
		room, err = o.rooms.Provision(ctx, id)
		if err != nil {
			return nil, nil, asCoreError(err, core.ErrProvisioning, "failed to provision interview room")
		}
	}

	sess := NewSession(id, candidateRef, vacancyRef, profile, o.now())
	if err := sess.Begin(); err != nil {
		return nil, nil, core.NewAPIError(err.Error())
	}
	if room != nil {
		sess.RoomName = room.Name
	}

	opening, err := o.planner.NextQuestion(ctx, profile, nil, nil)
	if err != nil || strings.TrimSpace(opening) == "" {
		if err != nil {
			o.logger.Warn("question planner failed, using scripted opener", "session_id", id, "error", err)
		}
		opening, _ = ScriptedPlanner{}.NextQuestion(ctx, profile, nil, nil)
	}
	sess.Ask(opening)

	if err := o.store.Save(ctx, sess); err != nil {
		return nil, nil, asCoreError(err, core.ErrPersistence, "failed to persist new session")
	}

	o.logger.Info("session created",
		"session_id", id,
		"candidate", candidateRef,
		"vacancy", vacancyRef,
	)
	return sess, room, nil
}

// SubmitTurn processes one candidate answer: transcribe, analyze, append,
// persist, then either the next question or the final report.
//
// Failure semantics, in order of the pipeline:
//   - a concurrent turn on the same session: ConflictError, nothing happens
//   - transcription failure: session untouched; the caller retries the same
//     turn (turn index is the idempotency key)
//   - analysis failure: transcript durably appended, session parked in
//     AwaitingAnalysis; the retry re-runs analysis only
//   - persistence failure after a successful adapter call: the session moves
//     to Failed, which is terminal
func (o *Orchestrator) SubmitTurn(ctx context.Context, sessionID string, in TurnInput) (*TurnResult, error) {
	if !o.guard.acquire(sessionID) {
		return nil, core.NewConflictError("a turn is already in flight for this session")
	}
	defer o.guard.release(sessionID)

	sess, err := o.store.Load(ctx, sessionID)
	if err != nil {
		return nil, asCoreError(err, core.ErrPersistence, "failed to load session")
	}
	if sess.IsTerminal() {
		return nil, core.NewSessionClosedError("session is " + string(sess.Status) + "; no further turns are accepted")
	}
	if sess.Status == StatusCreated {
		return nil, core.NewAPIError("session was never started")
	}

	transcript, resumed, err := o.resolveTranscript(ctx, sess, in)
	if err != nil {
		return nil, err
	}

	assessment, err := o.analyze(ctx, sess, transcript)
	if err != nil {
		if !resumed {
			// Retain partial progress: the transcript is recorded now so the
			// retry can skip transcription and re-run analysis only.
			sess.RecordAnswer(transcript, o.now())
			if terr := sess.transition(StatusAwaitingAnalysis); terr != nil {
				return nil, core.NewAPIError(terr.Error())
			}
			if serr := o.store.Save(ctx, sess); serr != nil {
				return nil, o.failSession(ctx, sess, serr)
			}
		}
		return nil, err
	}

	if !resumed {
		sess.RecordAnswer(transcript, o.now())
	}
	if err := sess.RecordAssessment(*assessment); err != nil {
		return nil, core.NewAPIError(err.Error())
	}
	if err := sess.transition(StatusInProgress); err != nil {
		return nil, core.NewAPIError(err.Error())
	}

	decision := Decide(sess.Assessments, in.Done, o.cfg.Policy)

	if decision == DecisionContinue {
		next, qerr := o.planner.NextQuestion(ctx, sess.Profile, sess.Questions, sess.Answers)
		if qerr != nil || strings.TrimSpace(next) == "" {
			if qerr != nil {
				o.logger.Warn("question planner failed, using scripted ladder", "session_id", sessionID, "error", qerr)
			}
			next, _ = ScriptedPlanner{}.NextQuestion(ctx, sess.Profile, sess.Questions, sess.Answers)
		}
		sess.Ask(next)
		if err := o.store.Save(ctx, sess); err != nil {
			return nil, o.failSession(ctx, sess, err)
		}
		o.logger.Info("turn recorded",
			"session_id", sessionID,
			"turn", sess.TurnCount(),
			"decision", decision,
		)
		return &TurnResult{Question: next, Decision: decision}, nil
	}

	if err := sess.Complete(o.now()); err != nil {
		return nil, core.NewAPIError(err.Error())
	}
	sess.CurrentQuestion = ""
	report := AggregateReport(sess.ID, sess.Assessments, decision, o.now())

	if err := o.store.Save(ctx, sess); err != nil {
		return nil, o.failSession(ctx, sess, err)
	}
	if err := o.store.SaveReport(ctx, report); err != nil {
		return nil, o.failSession(ctx, sess, err)
	}

	o.logger.Info("interview completed",
		"session_id", sessionID,
		"turns", sess.TurnCount(),
		"decision", decision,
		"suitable", report.Verdict.IsSuitable,
	)
	return &TurnResult{Report: report, Decision: decision}, nil
}

// IsComplete is a pure query over persisted status. It never mutates.
func (o *Orchestrator) IsComplete(ctx context.Context, sessionID string) (bool, error) {
	sess, err := o.store.Load(ctx, sessionID)
	if err != nil {
		return false, asCoreError(err, core.ErrPersistence, "failed to load session")
	}
	return sess.IsTerminal(), nil
}

// GetSession returns a read-only snapshot.
func (o *Orchestrator) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := o.store.Load(ctx, sessionID)
	if err != nil {
		return nil, asCoreError(err, core.ErrPersistence, "failed to load session")
	}
	return sess, nil
}

// GetReport returns the stored report for a completed interview. It never
// re-aggregates.
func (o *Orchestrator) GetReport(ctx context.Context, sessionID string) (*Report, error) {
	report, err := o.store.LoadReport(ctx, sessionID)
	if err != nil {
		return nil, asCoreError(err, core.ErrPersistence, "failed to load report")
	}
	return report, nil
}

// resolveTranscript produces the transcript for the current turn. When the
// session is parked in AwaitingAnalysis the last recorded answer is reused
// (resumed=true) and transcription is skipped entirely.
func (o *Orchestrator) resolveTranscript(ctx context.Context, sess *Session, in TurnInput) (transcript string, resumed bool, err error) {
	if sess.PendingAnalysis() {
		return sess.Answers[len(sess.Answers)-1], true, nil
	}

	if text := strings.TrimSpace(in.Text); text != "" {
		return text, false, nil
	}
	if len(in.Audio) == 0 {
		return "", false, core.NewTranscriptionError("empty answer: neither audio nor text was provided", nil)
	}

	callCtx, cancel := o.turnContext(ctx)
	defer cancel()
	text, terr := o.transcriber.Transcribe(callCtx, in.Audio)
	if terr != nil {
		return "", false, asCoreError(terr, core.ErrTranscription, "transcription failed; retry the same turn")
	}
	if strings.TrimSpace(text) == "" {
		return "", false, core.NewTranscriptionError("transcription produced no text", nil)
	}
	return strings.TrimSpace(text), false, nil
}

func (o *Orchestrator) analyze(ctx context.Context, sess *Session, transcript string) (*Assessment, error) {
	callCtx, cancel := o.turnContext(ctx)
	defer cancel()
	assessment, err := o.analyzer.Analyze(callCtx, transcript, sess.Profile, sess.Assessments)
	if err != nil {
		return nil, asCoreError(err, core.ErrAnalysis, "analysis failed; retry the same turn")
	}
	if err := assessment.Validate(); err != nil {
		return nil, core.NewAnalysisError("analyzer returned an invalid assessment: "+err.Error(), err)
	}
	return assessment, nil
}

// failSession marks the session terminally failed after a persistence error.
// The failed snapshot keeps every appended log entry; losing the turn
// silently would leave the durable and in-memory views disagreeing.
func (o *Orchestrator) failSession(ctx context.Context, sess *Session, cause error) error {
	if err := sess.Fail(o.now()); err == nil {
		if serr := o.store.Save(ctx, sess); serr != nil {
			o.logger.Error("failed to persist failed session state",
				"session_id", sess.ID, "error", serr)
		}
	}
	o.logger.Error("session failed", "session_id", sess.ID, "error", cause)
	return asCoreError(cause, core.ErrPersistence, "persistence failed; session is now terminal")
}

func (o *Orchestrator) turnContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.cfg.TurnTimeout > 0 {
		return context.WithTimeout(ctx, o.cfg.TurnTimeout)
	}
	return context.WithCancel(ctx)
}

// asCoreError passes through an existing *core.Error and wraps anything else
// under the given kind.
func asCoreError(err error, kind core.ErrorType, message string) error {
	var ce *core.Error
	if errors.As(err, &ce) {
		return ce
	}
	return &core.Error{Type: kind, Message: message, Cause: err}
}
