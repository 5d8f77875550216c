package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestNewKeyKeepsBaseName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\photo.png`, "photo.png"},
		{"", "file"},
	}
	for _, tt := range tests {
		key := NewKey(tt.in)
		if !strings.HasSuffix(key, "/"+tt.want) {
			t.Errorf("NewKey(%q) = %q, want suffix /%s", tt.in, key, tt.want)
		}
		if !ValidKey(key) {
			t.Errorf("NewKey(%q) = %q is not a valid key", tt.in, key)
		}
	}
}

func TestValidKey(t *testing.T) {
	for _, bad := range []string{"", "/abs", "a/../b", "a//b", `a\b`, "..", "./x"} {
		if ValidKey(bad) {
			t.Errorf("ValidKey(%q) = true", bad)
		}
	}
	if !ValidKey("0f3c/notes.txt") {
		t.Error("ValidKey rejected a generated-style key")
	}
}

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	key := NewKey("hello.txt")
	if err := l.Put(ctx, key, strings.NewReader("hello"), 5, "text/plain"); err != nil {
		t.Fatal(err)
	}
	rc, err := l.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = rc.Close() }()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Errorf("content = %q", got)
	}

	if _, err := l.Get(ctx, "missing/file"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing err = %v, want ErrNotFound", err)
	}
	if err := l.Put(ctx, "../escape", strings.NewReader("x"), 1, ""); err == nil {
		t.Error("Put accepted an escaping key")
	}
}
