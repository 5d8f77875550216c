package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/huddlehq/huddle/internal/backend"
	"github.com/huddlehq/huddle/internal/call"
	"github.com/huddlehq/huddle/internal/rpc"
	"github.com/huddlehq/huddle/internal/session"
	"google.golang.org/grpc/status"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fail(err)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "init":
		cmdInit(sessionName, args[1:])
		return
	case "use":
		cmdUse(args[1:])
		return
	}

	socketPath := session.SocketPath(sessionName)
	c, err := rpc.Dial(socketPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot connect to daemon for session %q: %v\n", sessionName, err)
		os.Exit(1)
	}
	defer func() { _ = c.Close() }()

	if args[0] == "watch" {
		cmdWatch(c, args[1:], *jsonFlag)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cli := &ctl{c: c, json: *jsonFlag}
	switch args[0] {
	case "status":
		cli.status(ctx)
	case "presence":
		cli.presence(ctx)
	case "chats":
		cli.chats(ctx, args[1:])
	case "open":
		need(args, 2, "open <chat-id>")
		check(c.Chat.OpenChat(ctx, args[1]))
	case "close":
		check(c.Chat.CloseChat(ctx))
	case "refresh":
		check(c.Chat.Refresh(ctx))
	case "view":
		cli.view(ctx)
	case "send":
		need(args, 2, "send <text>")
		resp, err := c.Message.Send(ctx, strings.Join(args[1:], " "))
		cli.printMessage(resp, err)
	case "send-file":
		need(args, 2, "send-file <path> [caption]")
		resp, err := c.Message.SendFile(ctx, args[1], strings.Join(args[2:], " "))
		cli.printMessage(resp, err)
	case "reply":
		id := ""
		if len(args) > 1 {
			id = args[1]
		}
		check(c.Message.SetReply(ctx, id))
	case "delete":
		need(args, 2, "delete <message-id> [--everyone]")
		check(c.Message.Delete(ctx, args[1], len(args) > 2 && args[2] == "--everyone"))
	case "forward":
		need(args, 3, "forward <message-id> <chat-id>")
		resp, err := c.Message.Forward(ctx, args[1], args[2])
		cli.printMessage(resp, err)
	case "pin":
		need(args, 2, "pin <message-id> [toggle|pin|unpin]")
		mode := rpc.PinToggle
		if len(args) > 2 {
			mode = args[2]
		}
		resp, err := c.Message.Pin(ctx, args[1], mode)
		cli.printMessage(resp, err)
	case "pins":
		cli.pins(ctx, args[1:])
	case "idea":
		need(args, 2, "idea <message-id>")
		resp, err := c.Message.SaveAsIdea(ctx, args[1])
		check(err)
		cli.printAnalysis(resp.Analysis)
	case "ideas":
		cli.ideas(ctx, args[1:])
	case "members":
		cli.members(ctx, args[1:])
	case "clear":
		check(c.Chat.RequestClearChat(ctx))
		fmt.Println("Run `huddlectl confirm` to delete every message.")
	case "delete-chat":
		check(c.Chat.RequestDeleteChat(ctx))
		fmt.Println("Run `huddlectl confirm` to delete the chat.")
	case "confirm":
		check(c.Chat.Confirm(ctx))
	case "cancel":
		check(c.Chat.Cancel(ctx))
	case "call":
		cli.call(ctx, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: huddlectl [--session <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  init --user <id> [--name <n>] [--api <url>]   Write session settings")
	fmt.Fprintln(os.Stderr, "  use <session> [--api <url>]   Set the default session")
	fmt.Fprintln(os.Stderr, "  status                        Show session status")
	fmt.Fprintln(os.Stderr, "  presence                      Show known presence")
	fmt.Fprintln(os.Stderr, "  chats [public|create <name> [--private]|join <id>]")
	fmt.Fprintln(os.Stderr, "  open <chat-id> | close | refresh | view")
	fmt.Fprintln(os.Stderr, "  send <text> | send-file <path> [caption] | reply [<id>]")
	fmt.Fprintln(os.Stderr, "  delete <id> [--everyone] | forward <id> <chat-id>")
	fmt.Fprintln(os.Stderr, "  pin <id> [toggle|pin|unpin] | pins [next|prev|jump]")
	fmt.Fprintln(os.Stderr, "  idea <id> | ideas [delete <idea-id>]")
	fmt.Fprintln(os.Stderr, "  members [add <email>]")
	fmt.Fprintln(os.Stderr, "  clear | delete-chat | confirm | cancel")
	fmt.Fprintln(os.Stderr, "  call [start [video|voice]|join <id>|enter|signal <name>|leave|end <id>]")
	fmt.Fprintln(os.Stderr, "  watch [namespace]             Stream daemon events")
}

type ctl struct {
	c    *rpc.Client
	json bool
}

func (x *ctl) status(ctx context.Context) {
	resp, err := x.c.Session.GetStatus(ctx)
	check(err)
	if x.json {
		outputJSON(resp)
		return
	}
	fmt.Printf("Session: %s\n", resp.Session)
	fmt.Printf("Status:  %s\n", resp.Status)
	fmt.Printf("User:    %s (%s)\n", resp.DisplayName, resp.UserID)
	fmt.Printf("Server:  %s\n", resp.APIURL)
	if resp.ActiveChat != "" {
		fmt.Printf("Chat:    %s\n", resp.ActiveChat)
	}
	fmt.Printf("Call:    %s\n", resp.CallState)
	fmt.Printf("Online:  %d\n", resp.Online)
	fmt.Printf("Uptime:  %dms\n", resp.UptimeMs)
}

func (x *ctl) presence(ctx context.Context) {
	resp, err := x.c.Session.ListPresence(ctx)
	check(err)
	if x.json {
		outputJSON(resp)
		return
	}
	for _, e := range resp.Entries {
		fmt.Printf("%-24s %-8s %s\n", e.UserID, e.Status, e.LastSeen.Format(time.RFC3339))
	}
}

func (x *ctl) chats(ctx context.Context, args []string) {
	if len(args) > 0 {
		switch args[0] {
		case "create":
			need(args, 2, "chats create <name> [--private]")
			private := len(args) > 2 && args[2] == "--private"
			resp, err := x.c.Chat.CreateChat(ctx, &rpc.CreateChatRequest{Name: args[1], Kind: backend.Group, Private: private})
			check(err)
			x.printChat(resp)
			return
		case "join":
			need(args, 2, "chats join <chat-id>")
			resp, err := x.c.Chat.JoinChat(ctx, args[1])
			check(err)
			x.printChat(resp)
			return
		}
	}
	resp, err := x.c.Chat.ListChats(ctx, len(args) > 0 && args[0] == "public")
	check(err)
	if x.json {
		outputJSON(resp)
		return
	}
	if len(resp.Chats) == 0 {
		fmt.Println("No chats.")
		return
	}
	for _, ch := range resp.Chats {
		fmt.Printf("%-24s %-8s %-24s %s\n", ch.ID, ch.Kind, ch.Name, ch.LastMessage)
	}
}

func (x *ctl) printChat(resp *rpc.ChatResponse) {
	if x.json {
		outputJSON(resp)
		return
	}
	fmt.Printf("%s  %s (%d members)\n", resp.Chat.ID, resp.Chat.Name, len(resp.Chat.Participants))
}

func (x *ctl) view(ctx context.Context) {
	v, err := x.c.Chat.GetView(ctx)
	check(err)
	if x.json {
		outputJSON(v)
		return
	}
	if v.ChatID == "" {
		fmt.Println("No chat open.")
		return
	}
	fmt.Printf("Chat %s (revision %d)\n", v.ChatID, v.Revision)
	if cur := v.PinCursor; cur >= 0 && cur < len(v.Pins) {
		fmt.Printf("Pinned %d/%d: %s\n", cur+1, len(v.Pins), v.Pins[cur].Preview())
	}
	for _, m := range v.Messages {
		flags := ""
		if m.IsPinned {
			flags += "*"
		}
		if m.IsForwarded {
			flags += ">"
		}
		line := fmt.Sprintf("%-12s %-10s %2s %s", m.ID, m.Sender, flags, m.Preview())
		if aff, ok := v.Affordances[m.ID]; ok {
			line += fmt.Sprintf("  [join=%t leave=%t end=%t]", aff.CanJoin, aff.CanLeave, aff.CanEnd)
		}
		fmt.Println(line)
	}
	if v.Call != nil {
		fmt.Printf("Call: %s %s in %s\n", v.Call.State, v.Call.Kind, v.Call.RoomID)
	}
	if v.Overlay.Prompt != "" {
		fmt.Printf("Pending: %s\n", v.Overlay.Prompt)
	}
	if v.Notice != nil {
		fmt.Printf("[%s] %s\n", v.Notice.Level, v.Notice.Text)
	}
}

func (x *ctl) printMessage(resp *rpc.MessageResponse, err error) {
	check(err)
	if x.json {
		outputJSON(resp)
		return
	}
	fmt.Printf("%s  %s\n", resp.Message.ID, resp.Message.Preview())
}

func (x *ctl) pins(ctx context.Context, args []string) {
	sub := "list"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "next", "prev":
		resp, err := x.c.Message.MovePin(ctx, sub == "next")
		check(err)
		if x.json {
			outputJSON(resp)
			return
		}
		if resp.Current == nil {
			fmt.Println("No pinned messages.")
			return
		}
		fmt.Printf("%d/%d  %s\n", resp.Cursor+1, resp.Count, resp.Current.Preview())
	case "jump":
		resp, err := x.c.Message.JumpToPin(ctx)
		check(err)
		if x.json {
			outputJSON(resp)
			return
		}
		fmt.Printf("#%d  %s  %s\n", resp.Index, resp.Message.ID, resp.Message.Preview())
	default:
		v, err := x.c.Chat.GetView(ctx)
		check(err)
		if x.json {
			outputJSON(v.Pins)
			return
		}
		for i, m := range v.Pins {
			marker := " "
			if i == v.PinCursor {
				marker = ">"
			}
			fmt.Printf("%s %-12s %s\n", marker, m.ID, m.Preview())
		}
	}
}

func (x *ctl) printAnalysis(a backend.Analysis) {
	if x.json {
		outputJSON(a)
		return
	}
	if a.Idea == nil {
		fmt.Printf("Not an idea (confidence %.2f)\n", a.Confidence)
		return
	}
	fmt.Printf("Saved #%s  %s  [%s/%s]\n", a.Idea.ID, a.Idea.Title, a.Category, a.Priority)
	if a.Suggestion != "" {
		fmt.Printf("Next: %s\n", a.Suggestion)
	}
}

func (x *ctl) ideas(ctx context.Context, args []string) {
	if len(args) > 0 && args[0] == "delete" {
		need(args, 2, "ideas delete <idea-id>")
		check(x.c.Message.DeleteIdea(ctx, args[1]))
		return
	}
	resp, err := x.c.Message.ListIdeas(ctx)
	check(err)
	if x.json {
		outputJSON(resp.Ideas)
		return
	}
	if len(resp.Ideas) == 0 {
		fmt.Println("The Idea Hub is empty.")
		return
	}
	for _, idea := range resp.Ideas {
		fmt.Printf("%-6s %-8s %-12s %s\n", idea.ID, idea.Priority, idea.Category, idea.Title)
	}
}

func (x *ctl) members(ctx context.Context, args []string) {
	if len(args) > 0 && args[0] == "add" {
		need(args, 2, "members add <email>")
		resp, err := x.c.Chat.AddMember(ctx, args[1])
		check(err)
		if x.json {
			outputJSON(resp)
			return
		}
		fmt.Printf("Added %s <%s>\n", resp.Participant.Name, resp.Participant.Email)
		return
	}
	resp, err := x.c.Chat.ListParticipants(ctx)
	check(err)
	if x.json {
		outputJSON(resp)
		return
	}
	for _, p := range resp.Participants {
		fmt.Printf("%-24s %-20s %s\n", p.ID, p.Name, p.Email)
	}
}

func (x *ctl) call(ctx context.Context, args []string) {
	sub := "status"
	if len(args) > 0 {
		sub = args[0]
	}
	var (
		resp *rpc.CallResponse
		err  error
	)
	switch sub {
	case "status":
		resp, err = x.c.Call.GetCall(ctx)
	case "start":
		kind := call.Video
		if len(args) > 1 {
			kind = call.Kind(args[1])
		}
		resp, err = x.c.Call.StartCall(ctx, &rpc.StartCallRequest{Kind: kind})
	case "join":
		need(args, 2, "call join <message-id>")
		resp, err = x.c.Call.JoinCall(ctx, args[1])
	case "enter":
		room, err := x.c.Call.EnterRoom(ctx)
		check(err)
		if x.json {
			outputJSON(room)
			return
		}
		fmt.Println(room.Room.URL)
		if room.QR != "" {
			fmt.Print(room.QR)
		}
		return
	case "signal":
		need(args, 2, "call signal <joined|left|readyToClose|cameraError|micError>")
		resp, err = x.c.Call.ReportCallSignal(ctx, args[1])
	case "leave":
		resp, err = x.c.Call.LeaveCall(ctx)
	case "end":
		need(args, 2, "call end <message-id>")
		check(x.c.Call.RequestEndCall(ctx, args[1]))
		fmt.Println("Run `huddlectl confirm` to end the call for everyone.")
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown call subcommand: %s\n", sub)
		os.Exit(1)
	}
	check(err)
	if x.json {
		outputJSON(resp)
		return
	}
	fmt.Printf("State: %s\n", resp.State)
	if resp.Session != nil {
		fmt.Printf("Room:  %s (%s)\n", resp.Session.RoomID, resp.Session.Kind)
	}
}

func cmdWatch(c *rpc.Client, args []string, jsonOut bool) {
	ns := ""
	if len(args) > 0 {
		ns = args[0]
	}
	stream, err := c.Session.WatchEvents(context.Background(), &rpc.WatchRequest{Namespace: ns})
	check(err)
	for {
		evt, err := stream.Recv()
		check(err)
		if jsonOut {
			outputJSON(evt)
			continue
		}
		fmt.Printf("%s %-28s %s\n", time.UnixMilli(evt.OccurredAtUnixMs).Format(time.TimeOnly), evt.Kind, evt.Payload)
	}
}

func need(args []string, n int, usage string) {
	if len(args) < n {
		fmt.Fprintf(os.Stderr, "usage: huddlectl %s\n", usage)
		os.Exit(1)
	}
}

func check(err error) {
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	if st, ok := status.FromError(err); ok {
		fmt.Fprintf(os.Stderr, "error: %s\n", st.Message())
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
