package timeline

import (
	"errors"
	"testing"

	"github.com/huddlehq/huddle/internal/apperr"
)

func TestForwardCopiesContentOnly(t *testing.T) {
	src := msg("1")
	src.Text = "hello"
	src.IsPinned = true
	src.ReplyTo = &ReplyRef{MessageID: "0", Sender: "bo", Text: "hi"}

	d, err := ForwardDraft(src, "c9", "me")
	if err != nil {
		t.Fatal(err)
	}
	if d.ChatID != "c9" || d.Text != "hello" || !d.IsForwarded {
		t.Errorf("draft = %+v", d)
	}
	if d.ReplyTo != nil || d.CallMeta != nil {
		t.Errorf("draft carries reply or call metadata: %+v", d)
	}
	if src.IsForwarded || src.ChatID != "c1" || src.ReplyTo == nil {
		t.Errorf("source mutated: %+v", src)
	}
}

func TestForwardFileCopiesAttachment(t *testing.T) {
	src := msg("1")
	src.Type = KindFile
	src.Text = ""
	src.Attachment = &Attachment{Filename: "doc.pdf", URL: "/uploads/doc.pdf", Size: 10}

	d, err := ForwardDraft(src, "c2", "me")
	if err != nil {
		t.Fatal(err)
	}
	d.Attachment.Filename = "x"
	if src.Attachment.Filename != "doc.pdf" {
		t.Error("forward shares attachment with source")
	}
}

func TestForwardCallBecomesText(t *testing.T) {
	src := msg("1")
	src.Type = KindCall
	src.Text = ""
	src.CallMeta = &CallMeta{RoomID: "TeamChat-c1-1", IsVoice: true, Status: CallActive}

	d, err := ForwardDraft(src, "c2", "me")
	if err != nil {
		t.Fatal(err)
	}
	if d.Type != KindText || d.Text != "Voice call" || d.CallMeta != nil {
		t.Errorf("draft = %+v, want plain text voice call", d)
	}
}

func TestForwardWithoutTargetFails(t *testing.T) {
	_, err := ForwardDraft(msg("1"), "", "me")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want validation failure", err)
	}
}

func TestValidateRejectsBlankText(t *testing.T) {
	tests := []struct {
		name    string
		draft   Draft
		wantErr bool
	}{
		{"text", TextDraft("c1", "me", " hi ", nil), false},
		{"blank", TextDraft("c1", "me", "   ", nil), true},
		{"no chat", TextDraft("", "me", "hi", nil), true},
		{"file", FileDraft("c1", "me", Attachment{Filename: "a", URL: "/u/a"}, "", nil), false},
		{"file without url", FileDraft("c1", "me", Attachment{Filename: "a"}, "", nil), true},
		{"call", CallDraft("c1", "me", "TeamChat-c1-1", false), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestReplyRefIsFrozen(t *testing.T) {
	src := msg("1")
	src.Attachment = &Attachment{Filename: "pic.png"}
	ref := NewReplyRef(src)
	src.Text = "changed"
	src.Attachment.Filename = "other.png"
	if ref.Text != "m-1" || ref.Filename != "pic.png" {
		t.Errorf("reply ref followed source: %+v", ref)
	}
}
