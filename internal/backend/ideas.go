package backend

import (
	"context"
	"net/http"
	"time"
)

// Idea is an entry of the team's Idea Hub.
type Idea struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Category   string    `json:"category,omitempty"`
	Priority   string    `json:"priority,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	ChatID     string    `json:"chatId,omitempty"`
	MessageID  string    `json:"messageId,omitempty"`
	CreatedBy  string    `json:"createdBy,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewIdea is the body of a create-idea request.
type NewIdea struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Category   string   `json:"category,omitempty"`
	Priority   string   `json:"priority,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	ChatID     string   `json:"chatId,omitempty"`
	MessageID  string   `json:"messageId,omitempty"`
	CreatedBy  string   `json:"createdBy,omitempty"`
}

// Analysis is the verdict of the idea analyzer. Idea is set when the
// analyzed content was saved to the hub.
type Analysis struct {
	IsIdea     bool    `json:"isIdea"`
	Confidence float64 `json:"confidence"`
	Category   string  `json:"category,omitempty"`
	Priority   string  `json:"priority,omitempty"`
	Suggestion string  `json:"suggestion,omitempty"`
	Idea       *Idea   `json:"idea,omitempty"`
}

// MessageAnalysis asks the analyzer to judge a text message.
type MessageAnalysis struct {
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	ChatID    string `json:"chatId,omitempty"`
	MessageID string `json:"messageId,omitempty"`
}

// FileAnalysis asks the analyzer to save an uploaded file as an idea.
type FileAnalysis struct {
	Filename  string `json:"filename"`
	URL       string `json:"url,omitempty"`
	Sender    string `json:"sender"`
	ChatID    string `json:"chatId,omitempty"`
	MessageID string `json:"messageId,omitempty"`
}

// ListIdeas returns the hub, newest first.
func (c *Client) ListIdeas(ctx context.Context) ([]Idea, error) {
	var ideas []Idea
	err := c.do(ctx, "list ideas", http.MethodGet, c.endpoint("ideas"), nil, &ideas)
	return ideas, err
}

// CreateIdea adds an idea to the hub.
func (c *Client) CreateIdea(ctx context.Context, ni NewIdea) (Idea, error) {
	var idea Idea
	err := c.do(ctx, "create idea", http.MethodPost, c.endpoint("ideas"), ni, &idea)
	return idea, err
}

// DeleteIdea removes an idea from the hub.
func (c *Client) DeleteIdea(ctx context.Context, id string) error {
	return c.do(ctx, "delete idea", http.MethodDelete, c.endpoint("ideas", id), nil, nil)
}

// AnalyzeMessage runs the analyzer on a message; ideas are saved server side.
func (c *Client) AnalyzeMessage(ctx context.Context, req MessageAnalysis) (Analysis, error) {
	var a Analysis
	err := c.do(ctx, "analyze message", http.MethodPost, c.endpoint("analyze-message"), req, &a)
	return a, err
}

// AnalyzeFile saves an uploaded file to the hub.
func (c *Client) AnalyzeFile(ctx context.Context, req FileAnalysis) (Analysis, error) {
	var a Analysis
	err := c.do(ctx, "analyze file", http.MethodPost, c.endpoint("analyze-file"), req, &a)
	return a, err
}
