// Package research wraps the research assistant query endpoints.
// Each wrapper maps one UI action to one API call and propagates
// errors unchanged to the caller.
package research

// SuggestionsResult is the response to a top-level query. When the
// query is not equity-related the backend answers directly through
// FinalResponse and no thread is opened.
type SuggestionsResult struct {
	IsEquityRelated bool     `json:"is_equity_related"`
	FinalResponse   string   `json:"final_response,omitempty"`
	ThreadID        string   `json:"thread_id,omitempty"`
	Suggestions     []string `json:"suggestions,omitempty"`
	Citations       []string `json:"citations,omitempty"`
}

// SelectionResult carries the synthesized answer for a set of selected
// suggestions.
type SelectionResult struct {
	Response string `json:"response"`
}

// CitationDetail describes one citation URL referenced by an answer.
type CitationDetail struct {
	Citation    string `json:"citation"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Answer is the response to a PDF document query.
type Answer struct {
	Answer string `json:"answer"`
}

// File is a document staged for upload.
type File struct {
	Name string
	Data []byte
}
