// Package conversation implements the research conversation flow: a
// client-side state machine sequencing a query through suggestion
// generation, user selection and the final cited response, recorded as
// a transcript of turns.
package conversation

// Turn is one rendered unit in the conversation transcript. The set of
// variants is closed: UserTurn, LoadingTurn, ErrorTurn, SuggestionsTurn
// and AssistantTurn. Renderers dispatch exhaustively over these.
type Turn interface {
	isTurn()
}

// UserTurn is the literal query text the user submitted.
type UserTurn struct {
	ID      string
	Content string
}

// LoadingTurn is a transient placeholder while a request is in flight.
// At most one exists in the transcript at any time, and it is always
// removed before the next turn is appended.
type LoadingTurn struct {
	ID string
}

// ErrorTurn carries a user-facing failure message.
type ErrorTurn struct {
	ID      string
	Content string
}

// SuggestionsTurn presents the generated research directions for a
// thread together with the citations backing them.
type SuggestionsTurn struct {
	ID          string
	Suggestions []string
	Citations   []string
	ThreadID    string
}

// AssistantTurn is a synthesized answer. Content is markdown with
// inline [n] citation markers; Citations holds the URLs the markers
// refer to. EquityRelated is false for queries the backend answered
// directly without opening a thread.
type AssistantTurn struct {
	ID            string
	Content       string
	Citations     []string
	EquityRelated bool
}

func (UserTurn) isTurn()        {}
func (LoadingTurn) isTurn()     {}
func (ErrorTurn) isTurn()       {}
func (SuggestionsTurn) isTurn() {}
func (AssistantTurn) isTurn()   {}
