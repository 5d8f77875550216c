// Package conference adapts an external video conferencing service.
// Only the room lifecycle is modelled; media is the provider's business.
package conference

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
	"unicode"

	"github.com/huddlehq/huddle/internal/apperr"
)

// Signal is a lifecycle notification raised by the provider.
type Signal string

const (
	Joined       Signal = "joined"
	Left         Signal = "left"
	ReadyToClose Signal = "readyToClose"
	CameraError  Signal = "cameraError"
	MicError     Signal = "micError"
)

// ParseSignal validates a signal name.
func ParseSignal(s string) (Signal, error) {
	switch sig := Signal(s); sig {
	case Joined, Left, ReadyToClose, CameraError, MicError:
		return sig, nil
	default:
		return "", apperr.Validationf("call signal", "unknown conference signal %q", s)
	}
}

// IsError reports whether sig is a media failure.
func (s Signal) IsError() bool {
	return s == CameraError || s == MicError
}

// Closes reports whether sig ends the local participation.
func (s Signal) Closes() bool {
	return s == Left || s == ReadyToClose
}

// Room is an opened conference room.
type Room struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	DisplayName string `json:"displayName"`
	VoiceOnly   bool   `json:"voiceOnly"`
}

// Provider opens conference rooms.
type Provider interface {
	Open(ctx context.Context, roomID, displayName string, voiceOnly bool) (Room, error)
}

// Jitsi opens rooms on a Jitsi Meet deployment.
type Jitsi struct {
	Domain string
	// Launch, when set, is handed the room URL, e.g. to open a browser.
	Launch func(ctx context.Context, url string) error
}

// Open implements Provider.
func (j Jitsi) Open(ctx context.Context, roomID, displayName string, voiceOnly bool) (Room, error) {
	name := RoomName(roomID)
	if name == "" {
		return Room{}, fmt.Errorf("room id %q has no usable characters", roomID)
	}
	room := Room{
		ID:          roomID,
		Name:        name,
		URL:         JoinURL(j.Domain, name, displayName, voiceOnly),
		DisplayName: displayName,
		VoiceOnly:   voiceOnly,
	}
	if j.Launch != nil {
		if err := j.Launch(ctx, room.URL); err != nil {
			return Room{}, fmt.Errorf("launch conference: %w", err)
		}
	}
	return room, nil
}

// RoomName lowercases roomID and drops everything but letters and digits.
func RoomName(roomID string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(roomID) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// JoinURL builds the meeting URL. Voice-only rooms start with video muted.
func JoinURL(domain, roomName, displayName string, voiceOnly bool) string {
	u := url.URL{Scheme: "https", Host: domain, Path: "/" + roomName}
	var frag []string
	if displayName != "" {
		frag = append(frag, fmt.Sprintf("userInfo.displayName=%q", displayName))
	}
	frag = append(frag, "config.prejoinPageEnabled=false")
	if voiceOnly {
		frag = append(frag, "config.startWithVideoMuted=true", "config.startAudioOnly=true")
	}
	return u.String() + "#" + url.PathEscape(strings.Join(frag, "&"))
}

// BrowserLauncher opens URLs with the desktop's default handler.
func BrowserLauncher(ctx context.Context, target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", target)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", target)
	}
	return cmd.Start()
}
