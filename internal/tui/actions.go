package tui

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/huddlehq/huddle/internal/backend"
	"github.com/huddlehq/huddle/internal/call"
	"github.com/huddlehq/huddle/internal/rpc"
	"github.com/huddlehq/huddle/internal/timeline"
	"github.com/huddlehq/huddle/internal/tui/keys"
	"github.com/huddlehq/huddle/internal/tui/ui"
	"github.com/huddlehq/huddle/internal/tui/views"
)

func runeKey(r rune, desc string, visible bool, fn func()) *keys.Action {
	return &keys.Action{Key: tcell.KeyRune, Rune: r, Description: desc, Visible: visible, Handler: fn}
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(runeKey(':', "Command", true, func() { a.showPrompt(ui.PromptCommand, "") }))
	a.registry.AddGlobal(runeKey('?', "Help", true, a.showHelp))
	a.registry.AddGlobal(runeKey('q', "Quit", true, a.Stop))

	a.registry.AddView(pageChats, &keys.Action{Key: tcell.KeyEnter, Handler: a.openSelected})
	a.registry.AddView(pageChats, runeKey('/', "Filter", false, func() { a.showPrompt(ui.PromptFilter, "") }))
	a.registry.AddView(pageChats, runeKey('p', "Public", false, a.togglePublic))

	a.registry.AddView(pageChat, runeKey('i', "", false, func() { a.app.SetFocus(a.chatView.Composer()) }))
	a.registry.AddView(pageChat, &keys.Action{Key: tcell.KeyEnter, Handler: a.withSelected(func(m timeline.Message) {
		a.openOverlay(rpc.OverlayMenu, m.ID)
	})})
	a.registry.AddView(pageChat, runeKey('r', "", false, a.withSelected(func(m timeline.Message) {
		a.run("reply", func(ctx context.Context) error { return a.c.Message.SetReply(ctx, m.ID) })
		a.app.SetFocus(a.chatView.Composer())
	})))
	a.registry.AddView(pageChat, runeKey('p', "", false, a.withSelected(func(m timeline.Message) {
		a.pin(m.ID, rpc.PinToggle)
	})))
	a.registry.AddView(pageChat, runeKey('f', "", false, a.withSelected(func(m timeline.Message) {
		a.openOverlay(rpc.OverlayForward, m.ID)
	})))
	a.registry.AddView(pageChat, runeKey('d', "", false, a.withSelected(func(m timeline.Message) {
		a.deleteMessage(m.ID, false)
	})))
	a.registry.AddView(pageChat, runeKey('D', "", false, a.withSelected(func(m timeline.Message) {
		a.deleteMessage(m.ID, true)
	})))
	a.registry.AddView(pageChat, runeKey('n', "", false, func() { a.movePin(true) }))
	a.registry.AddView(pageChat, runeKey('N', "", false, func() { a.movePin(false) }))
	a.registry.AddView(pageChat, runeKey('g', "", false, a.jumpToPin))
	a.registry.AddView(pageChat, runeKey('c', "", false, a.withLatestCall(a.joinCall)))
	a.registry.AddView(pageChat, runeKey('e', "", false, a.withLatestCall(a.endCall)))
	a.registry.AddView(pageChat, runeKey('v', "", false, func() { a.startCall(call.Video) }))
	a.registry.AddView(pageChat, runeKey('a', "", false, func() { a.startCall(call.Voice) }))
	a.registry.AddView(pageChat, runeKey('m', "", false, a.showMembers))

	a.registry.AddView(pageCall, runeKey('o', "", false, func() { a.signal("joined") }))
	a.registry.AddView(pageCall, runeKey('x', "", false, func() { a.signal("readyToClose") }))
	a.registry.AddView(pageCall, runeKey('l', "", false, a.leaveCall))
	a.registry.AddView(pageCall, runeKey('e', "", false, func() {
		if s := a.currentCall(); s != nil {
			a.endCall(timeline.Message{ID: s.DescriptorID})
		}
	}))
}

func (a *App) withSelected(fn func(m timeline.Message)) func() {
	return func() {
		if m, ok := a.chatView.Selected(); ok {
			fn(m)
		}
	}
}

func (a *App) withLatestCall(fn func(m timeline.Message)) func() {
	return func() {
		if m, ok := a.chatView.Selected(); ok && m.IsCall() {
			fn(m)
			return
		}
		if m, ok := a.chatView.LatestCall(); ok {
			fn(m)
			return
		}
		a.flash.Warn("No call in this chat")
	}
}

func (a *App) openSelected() {
	c, ok := a.chatList.Selected()
	if !ok {
		return
	}
	if a.vm.ShowPublic() {
		a.joinChat(c.ID)
		return
	}
	a.openChat(c.ID)
}

func (a *App) openOverlay(kind, msgID string) {
	a.run("open "+kind, func(ctx context.Context) error {
		return a.c.Chat.OpenOverlay(ctx, kind, msgID)
	})
}

func (a *App) pin(msgID, mode string) {
	a.run("pin", func(ctx context.Context) error {
		_, err := a.c.Message.Pin(ctx, msgID, mode)
		return err
	})
}

func (a *App) deleteMessage(msgID string, forEveryone bool) {
	a.run("delete", func(ctx context.Context) error {
		return a.c.Message.Delete(ctx, msgID, forEveryone)
	})
}

func (a *App) movePin(forward bool) {
	a.run("move pin", func(ctx context.Context) error {
		_, err := a.c.Message.MovePin(ctx, forward)
		return err
	})
}

func (a *App) jumpToPin() {
	a.run("jump to pin", func(ctx context.Context) error {
		resp, err := a.c.Message.JumpToPin(ctx)
		if err != nil {
			return err
		}
		a.app.QueueUpdateDraw(func() { a.chatView.SelectIndex(resp.Index) })
		return nil
	})
}

func (a *App) currentCall() *call.Session {
	if v := a.vm.View(); v != nil {
		return v.Call
	}
	return nil
}

func (a *App) startCall(kind call.Kind) {
	a.run("start call", func(ctx context.Context) error {
		if _, err := a.c.Call.StartCall(ctx, &rpc.StartCallRequest{Kind: kind}); err != nil {
			return err
		}
		return a.enterRoom(ctx)
	})
}

func (a *App) joinCall(m timeline.Message) {
	a.run("join call", func(ctx context.Context) error {
		if _, err := a.c.Call.JoinCall(ctx, m.ID); err != nil {
			return err
		}
		return a.enterRoom(ctx)
	})
}

// enterRoom opens the conference room and shows it on the call page.
func (a *App) enterRoom(ctx context.Context) error {
	resp, err := a.c.Call.EnterRoom(ctx)
	if err != nil {
		return err
	}
	a.app.QueueUpdateDraw(func() {
		a.callPanel.Show(resp.Room, resp.QR, a.currentCall())
		a.pages.Push(pageCall)
		a.focusPage()
	})
	return nil
}

func (a *App) endCall(m timeline.Message) {
	a.run("end call", func(ctx context.Context) error {
		return a.c.Call.RequestEndCall(ctx, m.ID)
	})
}

func (a *App) signal(sig string) {
	a.run("call signal", func(ctx context.Context) error {
		resp, err := a.c.Call.ReportCallSignal(ctx, sig)
		if err != nil {
			return err
		}
		if resp.State != call.Active {
			a.app.QueueUpdateDraw(func() {
				if a.pages.Current() == pageCall {
					a.pages.Pop()
					a.focusPage()
				}
			})
		}
		return nil
	})
}

func (a *App) leaveCall() {
	a.run("leave call", func(ctx context.Context) error {
		if _, err := a.c.Call.LeaveCall(ctx); err != nil {
			return err
		}
		a.app.QueueUpdateDraw(func() {
			if a.pages.Current() == pageCall {
				a.pages.Pop()
				a.focusPage()
			}
		})
		return nil
	})
}

func (a *App) showMembers() {
	a.run("members", func(ctx context.Context) error {
		resp, err := a.c.Chat.ListParticipants(ctx)
		if err != nil {
			return err
		}
		a.app.QueueUpdateDraw(func() { a.participants = resp.Participants })
		return a.c.Chat.OpenOverlay(ctx, rpc.OverlayParticipants, "")
	})
}

// menuAction performs a message menu entry. Entries that do not open
// another overlay dismiss the menu first.
func (a *App) menuAction(m timeline.Message, act views.MenuAction) {
	switch act {
	case views.ActionForward:
		a.openOverlay(rpc.OverlayForward, m.ID)
		return
	case views.ActionEndCall:
		a.endCall(m)
		return
	case views.ActionSaveIdea:
		a.run("save idea", func(ctx context.Context) error {
			_, err := a.c.Message.SaveAsIdea(ctx, m.ID)
			return err
		})
		return
	}
	a.run("close menu", a.c.Chat.Cancel)
	switch act {
	case views.ActionReply:
		a.composeNext = true
		a.run("reply", func(ctx context.Context) error { return a.c.Message.SetReply(ctx, m.ID) })
	case views.ActionPin:
		a.pin(m.ID, rpc.PinOn)
	case views.ActionUnpin:
		a.pin(m.ID, rpc.PinOff)
	case views.ActionDeleteMe:
		a.deleteMessage(m.ID, false)
	case views.ActionDeleteAll:
		a.deleteMessage(m.ID, true)
	case views.ActionJoinCall:
		a.joinCall(m)
	case views.ActionDownload:
		if m.Attachment != nil {
			a.flash.Info(fmt.Sprintf("%s: %s", m.Attachment.Filename, m.Attachment.URL))
		}
	}
}

// execute runs a command-mode line.
func (a *App) execute(cmd Command) {
	switch cmd.Name {
	case "quit":
		a.Stop()
	case "help":
		a.showHelp()
	case "open":
		if cmd.Args == "" {
			a.flash.Warn("usage: :open <chat>")
			return
		}
		id := cmd.Args
		if c, ok := a.chatList.Find(cmd.Args); ok {
			id = c.ID
		}
		a.openChat(id)
	case "join":
		if cmd.Args == "" {
			a.flash.Warn("usage: :join <chat id>")
			return
		}
		a.joinChat(cmd.Args)
	case "public":
		if !a.vm.ShowPublic() {
			a.togglePublic()
		}
		a.pages.Reset(pageChats)
		a.focusPage()
	case "new":
		name, private := newChatArgs(cmd.Args)
		if name == "" {
			a.ask = func(text string) { a.createChat(text, private) }
			a.showPrompt(ui.PromptAsk, "Group name")
			return
		}
		a.createChat(name, private)
	case "file":
		path, caption, err := fileArgs(cmd.Args)
		if err != nil {
			a.flash.Err(err)
			return
		}
		a.run("send file", func(ctx context.Context) error {
			_, err := a.c.Message.SendFile(ctx, path, caption)
			return err
		})
	case "call":
		verb, err := parseCallArgs(cmd.Args)
		if err != nil {
			a.flash.Err(err)
			return
		}
		switch verb.action {
		case "start":
			a.startCall(verb.kind)
		case "join":
			a.withLatestCall(a.joinCall)()
		case "enter":
			a.run("enter room", a.enterRoom)
		case "leave":
			a.leaveCall()
		case "end":
			a.withLatestCall(a.endCall)()
		}
	case "add":
		if cmd.Args == "" {
			a.openOverlay(rpc.OverlayAddMember, "")
			return
		}
		overlayHandler{a}.AddMember(cmd.Args)
	case "members":
		a.showMembers()
	case "clear":
		a.run("clear chat", a.c.Chat.RequestClearChat)
	case "delete-chat":
		a.run("delete chat", a.c.Chat.RequestDeleteChat)
	case "refresh":
		a.run("refresh", a.c.Chat.Refresh)
	default:
		a.flash.Warn(fmt.Sprintf("unknown command %q, try :help", cmd.Name))
	}
}

func (a *App) createChat(name string, private bool) {
	a.run("create chat", func(ctx context.Context) error {
		resp, err := a.c.Chat.CreateChat(ctx, &rpc.CreateChatRequest{Name: name, Kind: backend.Group, Private: private})
		if err != nil {
			return err
		}
		a.vm.SetPublic(false)
		a.openChat(resp.Chat.ID)
		return nil
	})
}
