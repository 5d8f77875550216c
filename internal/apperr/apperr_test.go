package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("send message: %w", Rejection("send", "chat is archived"))
	if !errors.Is(err, ErrRejected) {
		t.Error("errors.Is(err, ErrRejected) = false, want true")
	}
	if errors.Is(err, ErrNetwork) {
		t.Error("errors.Is(err, ErrNetwork) = true, want false")
	}
	if KindOf(err) != Rejected {
		t.Errorf("KindOf = %q, want %q", KindOf(err), Rejected)
	}
}

func TestUserMessageIsServerDetail(t *testing.T) {
	err := fmt.Errorf("add member: %w", Rejection("add member", "User not found"))
	if got := UserMessage(err); got != "User not found" {
		t.Errorf("UserMessage = %q, want %q", got, "User not found")
	}
}

func TestNetworkUnwraps(t *testing.T) {
	root := errors.New("connection refused")
	err := NetworkErr("list messages", root)
	if !errors.Is(err, root) {
		t.Error("network error should unwrap to its cause")
	}
	if !errors.Is(err, ErrNetwork) {
		t.Error("network error should match ErrNetwork")
	}
	if KindOf(root) != "" {
		t.Errorf("KindOf(plain) = %q, want empty", KindOf(root))
	}
}
