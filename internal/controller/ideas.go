package controller

import (
	"context"
	"strings"

	"github.com/huddlehq/huddle/internal/apperr"
	"github.com/huddlehq/huddle/internal/backend"
	"go.uber.org/zap"
)

// SaveAsIdea sends message id to the Idea Hub analyzer. Text messages are
// saved when the analyzer judges them an idea; files are always saved.
func (c *Controller) SaveAsIdea(ctx context.Context, id string) (backend.Analysis, error) {
	chatID, gen, err := c.active("save idea")
	if err != nil {
		return backend.Analysis{}, c.fail("save idea", err)
	}
	m, err := c.find("save idea", id)
	if err != nil {
		return backend.Analysis{}, c.fail("save idea", err)
	}

	var a backend.Analysis
	switch {
	case m.IsCall():
		return backend.Analysis{}, c.fail("save idea", apperr.Validationf("save idea", "calls cannot be saved as ideas"))
	case m.Attachment != nil:
		a, err = c.ideas.AnalyzeFile(ctx, backend.FileAnalysis{
			Filename:  m.Attachment.Filename,
			URL:       m.Attachment.URL,
			Sender:    m.Sender,
			ChatID:    chatID,
			MessageID: m.ID,
		})
	case strings.TrimSpace(m.Text) == "":
		return backend.Analysis{}, c.fail("save idea", apperr.Validationf("save idea", "message has no text"))
	default:
		a, err = c.ideas.AnalyzeMessage(ctx, backend.MessageAnalysis{
			Text:      m.Text,
			Sender:    m.Sender,
			ChatID:    chatID,
			MessageID: m.ID,
		})
	}
	if err != nil {
		return backend.Analysis{}, c.fail("save idea", err)
	}

	c.applyIfCurrent(gen, func() {
		if _, ok := c.overlay.(MenuOverlay); ok {
			c.overlay = NoOverlay{}
		}
	})
	switch {
	case a.IsIdea && m.Attachment != nil:
		c.notify(Info, "File saved to Idea Hub")
	case a.IsIdea:
		c.notify(Info, "Idea saved to Idea Hub")
	default:
		c.notify(Info, "Analysis complete (not an idea)")
	}
	c.logger.Info("message analyzed", zap.String("chat_id", chatID), zap.String("msg_id", id),
		zap.Bool("idea", a.IsIdea), zap.Float64("confidence", a.Confidence))
	return a, nil
}

// Ideas lists the Idea Hub.
func (c *Controller) Ideas(ctx context.Context) ([]backend.Idea, error) {
	ideas, err := c.ideas.ListIdeas(ctx)
	if err != nil {
		return nil, c.fail("list ideas", err)
	}
	return ideas, nil
}

// DeleteIdea removes an idea from the hub.
func (c *Controller) DeleteIdea(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return c.fail("delete idea", apperr.Validationf("delete idea", "idea id is required"))
	}
	if err := c.ideas.DeleteIdea(ctx, id); err != nil {
		return c.fail("delete idea", err)
	}
	c.notify(Info, "Idea deleted")
	return nil
}
