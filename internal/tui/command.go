package tui

import (
	"fmt"
	"strings"

	"github.com/huddlehq/huddle/internal/call"
)

// Command is a parsed command-mode line.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command string (without the leading ':').
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	if canonical, ok := commandAliases[cmd.Name]; ok {
		cmd.Name = canonical
	}
	return cmd
}

var commandAliases = map[string]string{
	"o":  "open",
	"q":  "quit",
	"q!": "quit",
	"h":  "help",
	"m":  "members",
	"dc": "delete-chat",
	"r":  "refresh",
}

// newChatArgs splits ":new" arguments into a name and the private flag.
func newChatArgs(args string) (name string, private bool) {
	var words []string
	for _, w := range strings.Fields(args) {
		if w == "--private" || w == "-p" {
			private = true
			continue
		}
		words = append(words, w)
	}
	return strings.Join(words, " "), private
}

// fileArgs splits ":file" arguments into a path and an optional caption.
func fileArgs(args string) (path, caption string, err error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return "", "", fmt.Errorf("usage: :file <path> [caption]")
	}
	if args[0] == '"' {
		end := strings.IndexByte(args[1:], '"')
		if end < 0 {
			return "", "", fmt.Errorf("unterminated quote in path")
		}
		return args[1 : end+1], strings.TrimSpace(args[end+2:]), nil
	}
	parts := strings.SplitN(args, " ", 2)
	if len(parts) == 2 {
		caption = strings.TrimSpace(parts[1])
	}
	return parts[0], caption, nil
}

// callVerb is the action of a ":call" command.
type callVerb struct {
	action string
	kind   call.Kind
}

func parseCallArgs(args string) (callVerb, error) {
	switch a := strings.ToLower(strings.TrimSpace(args)); a {
	case "", "video":
		return callVerb{action: "start", kind: call.Video}, nil
	case "voice", "audio":
		return callVerb{action: "start", kind: call.Voice}, nil
	case "join", "enter", "leave", "end":
		return callVerb{action: a}, nil
	default:
		return callVerb{}, fmt.Errorf("unknown call action %q", args)
	}
}
