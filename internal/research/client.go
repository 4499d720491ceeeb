package research

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/equitylens/equitylens/internal/api"
)

// Client issues research queries through the API gateway.
type Client struct {
	api *api.Client
}

// NewClient creates a research service client.
func NewClient(gateway *api.Client) *Client {
	return &Client{api: gateway}
}

type generateSuggestionsRequest struct {
	Query string `json:"query"`
}

type selectSuggestionsRequest struct {
	ThreadID        string `json:"thread_id"`
	SelectedIndices []int  `json:"selected_indices"`
}

type citationDetailsRequest struct {
	ThreadID string `json:"thread_id"`
}

// GenerateSuggestions submits a top-level query for classification and
// research-direction generation.
func (c *Client) GenerateSuggestions(ctx context.Context, query string) (*SuggestionsResult, error) {
	var result SuggestionsResult
	if err := c.api.PostJSON(ctx, "/generate/suggestions", generateSuggestionsRequest{Query: query}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SelectSuggestions submits the selected suggestion indices for a
// thread. Indices are passed in accumulation order, not sorted.
func (c *Client) SelectSuggestions(ctx context.Context, threadID string, indices []int) (*SelectionResult, error) {
	var result SelectionResult
	req := selectSuggestionsRequest{ThreadID: threadID, SelectedIndices: indices}
	if err := c.api.PostJSON(ctx, "/select/suggestions", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CitationDetails fetches title and description for every citation in
// a thread.
func (c *Client) CitationDetails(ctx context.Context, threadID string) ([]CitationDetail, error) {
	var details []CitationDetail
	if err := c.api.PostJSON(ctx, "/citations/details", citationDetailsRequest{ThreadID: threadID}, &details); err != nil {
		return nil, err
	}
	return details, nil
}

// PDFQuery submits PDF documents and a question as a multipart form.
func (c *Client) PDFQuery(ctx context.Context, files []File, query string) (*Answer, error) {
	var answer Answer
	err := c.api.PostMultipart(ctx, "/rag/qa", func(mw *multipart.Writer) error {
		for _, f := range files {
			fw, err := mw.CreateFormFile("files", f.Name)
			if err != nil {
				return fmt.Errorf("create form file %s: %w", f.Name, err)
			}
			if _, err := fw.Write(f.Data); err != nil {
				return fmt.Errorf("write form file %s: %w", f.Name, err)
			}
		}
		return mw.WriteField("query", query)
	}, &answer)
	if err != nil {
		return nil, err
	}
	return &answer, nil
}
