package view

import (
	"context"
	"errors"
	"strings"

	"github.com/raushankrgupta/eyewear-stylist/models"
	"github.com/raushankrgupta/eyewear-stylist/stylist"
)

// Alignment places a chat bubble on one side of the conversation pane.
type Alignment string

const (
	AlignRight Alignment = "right"
	AlignLeft  Alignment = "left"
)

// ErrSubmitDisabled is returned when the composer is busy or empty.
var ErrSubmitDisabled = errors.New("submit is disabled")

// MessageItem is one rendered chat bubble.
type MessageItem struct {
	ID    string
	Role  models.Role
	Text  string
	Align Alignment
	Links []models.Link
}

// ConversationView is the render model of the conversation pane.
type ConversationView struct {
	Items []MessageItem
	Busy  bool
}

// NewConversationView lays out the message log in order. User messages sit
// on the right, model messages on the left.
func NewConversationView(snap stylist.Snapshot) ConversationView {
	v := ConversationView{Busy: snap.Busy}
	if snap.Session == nil {
		return v
	}
	v.Items = make([]MessageItem, 0, len(snap.Session.Messages))
	for _, m := range snap.Session.Messages {
		align := AlignLeft
		if m.Role == models.RoleUser {
			align = AlignRight
		}
		v.Items = append(v.Items, MessageItem{
			ID:    m.ID,
			Role:  m.Role,
			Text:  m.Text,
			Align: align,
			Links: m.Links,
		})
	}
	return v
}

// CanSubmit reports whether the submit buttons are enabled.
func (v ConversationView) CanSubmit(input string) bool {
	return !v.Busy && strings.TrimSpace(input) != ""
}

// ChatActions is what the composer drives.
type ChatActions interface {
	Snapshot() stylist.Snapshot
	SendChatMessage(ctx context.Context, text string) error
	RequestVisualization(ctx context.Context, text string) error
}

// Composer is the shared text input with its two submit buttons.
type Composer struct {
	Input   string
	actions ChatActions
}

func NewComposer(actions ChatActions) *Composer {
	return &Composer{actions: actions}
}

func (c *Composer) Enabled() bool {
	return NewConversationView(c.actions.Snapshot()).CanSubmit(c.Input)
}

// SubmitChat sends the input as a consultant question.
func (c *Composer) SubmitChat(ctx context.Context) error {
	return c.submit(ctx, c.actions.SendChatMessage)
}

// SubmitVisualize sends the input as an edit instruction for the portrait.
func (c *Composer) SubmitVisualize(ctx context.Context) error {
	return c.submit(ctx, c.actions.RequestVisualization)
}

func (c *Composer) submit(ctx context.Context, action func(context.Context, string) error) error {
	if !c.Enabled() {
		return ErrSubmitDisabled
	}
	text := c.Input
	c.Input = ""
	return action(ctx, text)
}
