package backend

import (
	"context"
	"net/http"
	"net/url"
)

// ChatKind distinguishes one-to-one chats from groups.
type ChatKind string

const (
	Direct ChatKind = "direct"
	Group  ChatKind = "group"
)

// Participant is a chat member as listed by the participant service.
type Participant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// Chat is owned by the chat service; the client only reads it.
type Chat struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Kind         ChatKind      `json:"type"`
	Participants []Participant `json:"participants"`
	Avatar       string        `json:"avatar,omitempty"`
	LastMessage  string        `json:"lastMessage,omitempty"`
	IsPrivate    bool          `json:"isPrivate"`
	CreatedBy    string        `json:"createdBy,omitempty"`
}

// NewChat is the body of a create-chat request.
type NewChat struct {
	Name         string        `json:"name"`
	Kind         ChatKind      `json:"type"`
	Participants []Participant `json:"participants"`
	IsPrivate    bool          `json:"isPrivate"`
	CreatedBy    string        `json:"createdBy,omitempty"`
}

type joinRequest struct {
	ChatID string      `json:"chat_id"`
	User   Participant `json:"user"`
}

type joinResponse struct {
	Message string `json:"message"`
	Chat    Chat   `json:"chat"`
}

type addParticipantRequest struct {
	Email string `json:"email"`
}

type addParticipantResponse struct {
	Message string      `json:"message"`
	User    Participant `json:"user"`
}

// ListChats returns the chats userID participates in.
func (c *Client) ListChats(ctx context.Context, userID string) ([]Chat, error) {
	endpoint := c.endpoint("chats")
	if userID != "" {
		endpoint += "?" + url.Values{"userId": {userID}}.Encode()
	}
	var chats []Chat
	err := c.do(ctx, "list chats", http.MethodGet, endpoint, nil, &chats)
	return chats, err
}

// PublicChats lists groups anyone may join.
func (c *Client) PublicChats(ctx context.Context) ([]Chat, error) {
	var chats []Chat
	err := c.do(ctx, "list public chats", http.MethodGet, c.endpoint("chats", "public"), nil, &chats)
	return chats, err
}

// CreateChat creates a chat.
func (c *Client) CreateChat(ctx context.Context, nc NewChat) (Chat, error) {
	var chat Chat
	err := c.do(ctx, "create chat", http.MethodPost, c.endpoint("chats"), nc, &chat)
	return chat, err
}

// DeleteChat deletes a chat and its messages.
func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	return c.do(ctx, "delete chat", http.MethodDelete, c.endpoint("chats", chatID), nil, nil)
}

// JoinChat adds user to a public chat.
func (c *Client) JoinChat(ctx context.Context, chatID string, user Participant) (Chat, error) {
	var resp joinResponse
	err := c.do(ctx, "join chat", http.MethodPost, c.endpoint("chats", "join"), joinRequest{ChatID: chatID, User: user}, &resp)
	return resp.Chat, err
}

// Participants lists the members of a chat.
func (c *Client) Participants(ctx context.Context, chatID string) ([]Participant, error) {
	var ps []Participant
	err := c.do(ctx, "list participants", http.MethodGet, c.endpoint("chats", chatID, "participants"), nil, &ps)
	return ps, err
}

// AddParticipant adds the user registered under email.
func (c *Client) AddParticipant(ctx context.Context, chatID, email string) (Participant, error) {
	var resp addParticipantResponse
	err := c.do(ctx, "add member", http.MethodPost, c.endpoint("chats", chatID, "participants"), addParticipantRequest{Email: email}, &resp)
	return resp.User, err
}
