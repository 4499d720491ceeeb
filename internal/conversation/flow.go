package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/equitylens/equitylens/internal/api"
	"github.com/equitylens/equitylens/internal/research"
)

// genericErrMsg is shown when a failure carries no server detail.
const genericErrMsg = "An error occurred. Please try again."

// Stage is the flow controller state.
type Stage int

const (
	// StageQuery awaits a fresh top-level question.
	StageQuery Stage = iota
	// StageSuggestions awaits the user's selection among generated
	// research directions.
	StageSuggestions
	// StageResponse shows a final answer; a new query may be submitted.
	StageResponse
)

func (s Stage) String() string {
	switch s {
	case StageQuery:
		return "query"
	case StageSuggestions:
		return "suggestions"
	case StageResponse:
		return "response"
	default:
		return "unknown"
	}
}

// Gating errors returned when an operation is not admissible in the
// current state. None of them mutate the flow.
var (
	ErrEmptyQuery        = errors.New("query is blank")
	ErrBusy              = errors.New("a request is already in flight")
	ErrAwaitingSelection = errors.New("suggestions are awaiting selection")
	ErrNoSuggestions     = errors.New("no suggestions to act on")
	ErrNoSelection       = errors.New("no suggestions selected")
	ErrNoThread          = errors.New("no active thread")
	ErrIndexOutOfRange   = errors.New("suggestion index out of range")
)

// Service is the slice of the research client the flow needs.
type Service interface {
	GenerateSuggestions(ctx context.Context, query string) (*research.SuggestionsResult, error)
	SelectSuggestions(ctx context.Context, threadID string, indices []int) (*research.SelectionResult, error)
	CitationDetails(ctx context.Context, threadID string) ([]research.CitationDetail, error)
}

// Flow sequences one conversation. All state lives behind a single
// mutex; the background citation-detail fetch is the only goroutine the
// flow spawns and it re-enters through the same mutex.
type Flow struct {
	mu     sync.Mutex
	svc    Service
	logger *zap.Logger

	// onUpdate, when set, fires after every observable mutation so the
	// shell can re-render. Called without the mutex held.
	onUpdate func()

	turns   []Turn
	stage   Stage
	loading bool

	// epoch counts conversations. A background detail fetch stamped
	// with an older epoch is dropped on arrival.
	epoch uint64

	threadID    string
	suggestions []string
	citations   []string
	details     []research.CitationDetail
	selected    []int // accumulation order, not sorted
}

// Option customizes a Flow.
type Option func(*Flow)

// WithLogger sets the flow logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Flow) { f.logger = l }
}

// WithUpdateFunc registers a callback fired after each state change.
func WithUpdateFunc(fn func()) Option {
	return func(f *Flow) { f.onUpdate = fn }
}

// NewFlow creates a conversation flow in StageQuery.
func NewFlow(svc Service, opts ...Option) *Flow {
	f := &Flow{
		svc:    svc,
		logger: zap.NewNop(),
		stage:  StageQuery,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SubmitQuery starts a new conversation with a top-level question. It
// is rejected while a request is outstanding or while suggestions are
// awaiting selection. Request failures are recorded as an ErrorTurn,
// not returned.
func (f *Flow) SubmitQuery(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyQuery
	}

	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return ErrBusy
	}
	if f.stage == StageSuggestions {
		f.mu.Unlock()
		return ErrAwaitingSelection
	}

	f.loading = true
	f.stage = StageQuery
	f.turns = append(f.turns,
		UserTurn{ID: uuid.NewString(), Content: text},
		LoadingTurn{ID: uuid.NewString()},
	)

	// Reset conversation session state for the new query.
	f.epoch++
	f.threadID = ""
	f.suggestions = nil
	f.citations = nil
	f.details = nil
	f.selected = nil
	epoch := f.epoch
	f.mu.Unlock()
	f.notify()

	result, err := f.svc.GenerateSuggestions(ctx, text)

	f.mu.Lock()
	f.removeLoadingLocked()
	f.loading = false

	if err != nil {
		f.logger.Warn("generate suggestions failed", zap.Error(err))
		f.turns = append(f.turns, ErrorTurn{
			ID:      uuid.NewString(),
			Content: api.Detail(err, genericErrMsg),
		})
		f.mu.Unlock()
		f.notify()
		return nil
	}

	if !result.IsEquityRelated {
		f.turns = append(f.turns, AssistantTurn{
			ID:            uuid.NewString(),
			Content:       result.FinalResponse,
			EquityRelated: false,
		})
		f.stage = StageResponse
		f.mu.Unlock()
		f.notify()
		return nil
	}

	f.threadID = result.ThreadID
	f.suggestions = result.Suggestions
	f.citations = result.Citations
	f.turns = append(f.turns, SuggestionsTurn{
		ID:          uuid.NewString(),
		Suggestions: result.Suggestions,
		Citations:   result.Citations,
		ThreadID:    result.ThreadID,
	})
	f.stage = StageSuggestions
	fetchDetails := len(result.Citations) > 0
	threadID := f.threadID
	f.mu.Unlock()
	f.notify()

	if fetchDetails {
		go f.fetchDetails(epoch, threadID)
	}
	return nil
}

// fetchDetails loads citation details in the background. Failure is
// logged and leaves details empty; a result arriving after the user
// started a new conversation is dropped.
func (f *Flow) fetchDetails(epoch uint64, threadID string) {
	details, err := f.svc.CitationDetails(context.Background(), threadID)
	if err != nil {
		f.logger.Debug("citation details fetch failed", zap.String("thread", threadID), zap.Error(err))
		return
	}
	f.applyDetails(epoch, details)
}

func (f *Flow) applyDetails(epoch uint64, details []research.CitationDetail) {
	f.mu.Lock()
	if epoch != f.epoch {
		f.logger.Debug("dropping stale citation details", zap.Uint64("epoch", epoch))
		f.mu.Unlock()
		return
	}
	f.details = details
	f.mu.Unlock()
	f.notify()
}

// ToggleSuggestion adds or removes a suggestion index from the
// selection. Valid only while suggestions are displayed. Toggling the
// same index twice restores the prior selection.
func (f *Flow) ToggleSuggestion(index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stage != StageSuggestions {
		return ErrNoSuggestions
	}
	if index < 0 || index >= len(f.suggestions) {
		return ErrIndexOutOfRange
	}

	for i, sel := range f.selected {
		if sel == index {
			f.selected = append(f.selected[:i], f.selected[i+1:]...)
			return nil
		}
	}
	f.selected = append(f.selected, index)
	return nil
}

// SubmitSelections sends the selected suggestion indices for the
// current thread. With an empty selection it is a no-op. On failure the
// flow stays in StageSuggestions with the selection intact.
func (f *Flow) SubmitSelections(ctx context.Context) error {
	f.mu.Lock()
	if f.stage != StageSuggestions {
		f.mu.Unlock()
		return ErrNoSuggestions
	}
	if len(f.selected) == 0 {
		f.mu.Unlock()
		return ErrNoSelection
	}
	if f.threadID == "" {
		f.mu.Unlock()
		return ErrNoThread
	}
	if f.loading {
		f.mu.Unlock()
		return ErrBusy
	}

	f.loading = true
	f.turns = append(f.turns, LoadingTurn{ID: uuid.NewString()})
	threadID := f.threadID
	indices := append([]int(nil), f.selected...)
	citations := append([]string(nil), f.citations...)
	f.mu.Unlock()
	f.notify()

	result, err := f.svc.SelectSuggestions(ctx, threadID, indices)

	f.mu.Lock()
	f.removeLoadingLocked()
	f.loading = false

	if err != nil {
		f.logger.Warn("select suggestions failed", zap.Error(err))
		f.turns = append(f.turns, ErrorTurn{
			ID:      uuid.NewString(),
			Content: api.Detail(err, genericErrMsg),
		})
		f.mu.Unlock()
		f.notify()
		return nil
	}

	f.turns = append(f.turns, AssistantTurn{
		ID:            uuid.NewString(),
		Content:       result.Response,
		Citations:     citations,
		EquityRelated: true,
	})
	f.selected = nil
	f.stage = StageResponse
	f.mu.Unlock()
	f.notify()
	return nil
}

// removeLoadingLocked drops the transient loading turn. Caller holds
// the mutex.
func (f *Flow) removeLoadingLocked() {
	for i := len(f.turns) - 1; i >= 0; i-- {
		if _, ok := f.turns[i].(LoadingTurn); ok {
			f.turns = append(f.turns[:i], f.turns[i+1:]...)
		}
	}
}

func (f *Flow) notify() {
	if f.onUpdate != nil {
		f.onUpdate()
	}
}

// Turns returns a copy of the transcript in chronological order.
func (f *Flow) Turns() []Turn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Turn(nil), f.turns...)
}

// Stage returns the current flow stage.
func (f *Flow) Stage() Stage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stage
}

// Loading reports whether a request is outstanding.
func (f *Flow) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// AcceptingQuery reports whether a new top-level query may be submitted.
func (f *Flow) AcceptingQuery() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.loading && f.stage != StageSuggestions
}

// Suggestions returns the current suggestion texts.
func (f *Flow) Suggestions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.suggestions...)
}

// Selected returns the selected indices in accumulation order.
func (f *Flow) Selected() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.selected...)
}

// Citations returns the citation URLs for the current thread.
func (f *Flow) Citations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.citations...)
}

// CitationDetails returns the fetched citation details, which may be
// empty when the background fetch has not completed or failed.
func (f *Flow) CitationDetails() []research.CitationDetail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]research.CitationDetail(nil), f.details...)
}
