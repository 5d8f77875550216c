package tui

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"
	"google.golang.org/grpc/status"

	"github.com/huddlehq/huddle/internal/backend"
	"github.com/huddlehq/huddle/internal/rpc"
	"github.com/huddlehq/huddle/internal/timeline"
	"github.com/huddlehq/huddle/internal/tui/keys"
	"github.com/huddlehq/huddle/internal/tui/model"
	"github.com/huddlehq/huddle/internal/tui/ui"
	"github.com/huddlehq/huddle/internal/tui/views"
)

const (
	pageChats   = "chats"
	pageChat    = "chat"
	pageCall    = "call"
	pageHelp    = "help"
	pageOverlay = "overlay"
)

// App is the terminal client shell.
type App struct {
	app      *tview.Application
	root     *tview.Flex
	pages    *ui.Pages
	theme    *ui.Theme
	header   *ui.Header
	crumbs   *ui.Crumbs
	flash    *ui.FlashModel
	flashBar *ui.FlashBar
	prompt   *ui.Prompt
	ask      func(text string)

	statusBar *views.StatusBar
	chatList  *views.ChatList
	chatView  *views.ChatView
	callPanel *views.CallPanel
	helpView  *views.HelpView
	overlay   *views.Overlay

	vm           *model.ViewModel
	c            *rpc.Client
	registry     *keys.Registry
	logger       *zap.Logger
	session      string
	participants []backend.Participant
	overlayKey   string
	composeNext  bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp builds the terminal client for the daemon behind c.
func NewApp(c *rpc.Client, sessionName string, logger *zap.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()
	a := &App{
		app:       tview.NewApplication(),
		pages:     ui.NewPages(),
		theme:     theme,
		header:    ui.NewHeader(theme),
		crumbs:    ui.NewCrumbs(theme),
		flash:     ui.NewFlashModel(),
		flashBar:  ui.NewFlashBar(theme),
		prompt:    ui.NewPrompt(theme),
		statusBar: views.NewStatusBar(theme),
		chatList:  views.NewChatList(theme),
		chatView:  views.NewChatView(theme),
		callPanel: views.NewCallPanel(theme),
		helpView:  views.NewHelpView(theme),
		vm:        model.NewViewModel(model.FromClient(c)),
		c:         c,
		registry:  keys.NewRegistry(),
		logger:    logger,
		session:   sessionName,
		ctx:       ctx,
		cancel:    cancel,
	}
	a.overlay = views.NewOverlay(theme, overlayHandler{a})
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	return a
}

// components maps page names to what they render.
func (a *App) component(page string) ui.Component {
	switch page {
	case pageChat:
		return a.chatView
	case pageCall:
		return a.callPanel
	case pageHelp:
		return a.helpView
	default:
		return a.chatList
	}
}

func (a *App) setupLayout() {
	a.pages.AddPage(pageChats, a.chatList, true, false)
	a.pages.AddPage(pageChat, a.chatView, true, false)
	a.pages.AddPage(pageCall, a.callPanel, true, false)
	a.pages.AddPage(pageHelp, a.helpView, true, false)
	a.pages.AddPage(pageOverlay, a.overlay, true, false)
	a.pages.SetOnChange(func(stack []string) {
		labels := make([]string, len(stack))
		for i, name := range stack {
			labels[i] = a.component(name).Name()
		}
		a.crumbs.Update(labels)
		a.updateHints()
	})

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.header, a.header.Height(), 0, false).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.flashBar, 1, 0, false).
		AddItem(a.statusBar, 1, 0, false)
	a.pages.Reset(pageChats)
	a.app.SetRoot(a.root, true)
	a.app.SetInputCapture(a.capture)
}

func (a *App) setupCallbacks() {
	a.chatView.SetOnSend(func(text string) {
		a.run("send", func(ctx context.Context) error {
			_, err := a.c.Message.Send(ctx, text)
			return err
		})
	})
	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		switch mode {
		case ui.PromptCommand:
			a.execute(ParseCommand(text))
		case ui.PromptFilter:
			a.chatList.SetFilter(text)
		case ui.PromptAsk:
			if fn := a.ask; fn != nil {
				a.ask = nil
				fn(text)
			}
		}
	})
	a.prompt.SetOnCancel(func() {
		a.ask = nil
		if a.prompt.Mode() == ui.PromptFilter {
			a.chatList.SetFilter("")
		}
		a.hidePrompt()
	})
}

func (a *App) showPrompt(mode ui.PromptMode, title string) {
	a.prompt.Activate(mode, title)
	a.root.ResizeItem(a.prompt, 3, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.root.ResizeItem(a.prompt, 0, 0)
	a.focusPage()
}

func (a *App) focusPage() {
	if a.overlay.Kind() != rpc.OverlayNone && a.overlay.FocusTarget() != nil {
		a.app.SetFocus(a.overlay.FocusTarget())
		return
	}
	switch a.pages.Current() {
	case pageChat:
		if a.composeNext {
			a.composeNext = false
			a.app.SetFocus(a.chatView.Composer())
			return
		}
		a.app.SetFocus(a.chatView.Table())
	case pageCall:
		a.app.SetFocus(a.callPanel)
	case pageHelp:
		a.app.SetFocus(a.helpView)
	default:
		a.app.SetFocus(a.chatList)
	}
}

func (a *App) updateHints() {
	hints := a.component(a.pages.Current()).Hints()
	if a.overlay.Kind() != rpc.OverlayNone {
		hints = a.overlay.Hints()
	}
	a.header.SetHints(append(hints, a.registry.Hints(a.pages.Current())...))
}

// capture routes keys: inputs get their own keys, Esc walks back, and
// everything else goes through the registry.
func (a *App) capture(ev *tcell.EventKey) *tcell.EventKey {
	focused := a.app.GetFocus()
	if focused == a.prompt.InputField {
		return ev
	}
	if a.overlay.Kind() != rpc.OverlayNone {
		return ev
	}
	if focused == a.chatView.Composer() {
		if ev.Key() == tcell.KeyEscape {
			a.app.SetFocus(a.chatView.Table())
			return nil
		}
		return ev
	}
	if ev.Key() == tcell.KeyEscape {
		a.back()
		return nil
	}
	if ev.Key() == tcell.KeyCtrlC {
		a.Stop()
		return nil
	}
	if a.registry.HandleEvent(a.pages.Current(), ev) {
		return nil
	}
	return ev
}

func (a *App) back() {
	switch a.pages.Current() {
	case pageChat:
		if v := a.vm.View(); v != nil && v.ReplyTo != nil {
			a.run("cancel reply", func(ctx context.Context) error { return a.c.Message.SetReply(ctx, "") })
			return
		}
		a.pages.Pop()
		a.run("close chat", func(ctx context.Context) error { return a.c.Chat.CloseChat(ctx) })
	case pageChats:
		if a.chatList.Filter() != "" {
			a.chatList.SetFilter("")
			return
		}
		if a.vm.ShowPublic() {
			a.togglePublic()
		}
	default:
		a.pages.Pop()
	}
	a.focusPage()
}

// run performs action off the UI goroutine, reloads and flashes errors.
func (a *App) run(op string, action func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, 30*time.Second)
		defer cancel()
		if err := a.vm.Do(ctx, action); err != nil && a.ctx.Err() == nil {
			a.logger.Warn("action failed", zap.String("op", op), zap.Error(err))
			a.flash.Show(ui.FlashErr, errorText(err))
		}
	}()
}

// errorText unwraps the daemon's status message.
func errorText(err error) string {
	if s, ok := status.FromError(err); ok {
		return s.Message()
	}
	return err.Error()
}

// Run starts the client and blocks until it quits.
func (a *App) Run() error {
	go a.load()
	go a.watch()
	go a.redrawLoop()
	defer a.cancel()
	return a.app.Run()
}

func (a *App) load() {
	if err := a.vm.Refresh(a.ctx); err != nil {
		a.flash.Show(ui.FlashErr, errorText(err))
	}
	if v := a.vm.View(); v != nil && v.ChatID != "" {
		a.app.QueueUpdateDraw(func() {
			a.pages.Push(pageChat)
			a.focusPage()
		})
	}
}

// watch follows daemon events, reconnecting the stream after failures.
func (a *App) watch() {
	for a.ctx.Err() == nil {
		stream, err := a.c.Session.WatchEvents(a.ctx, &rpc.WatchRequest{})
		if err == nil {
			err = a.vm.Follow(a.ctx, stream)
		}
		if err != nil && a.ctx.Err() == nil {
			a.logger.Warn("event stream ended", zap.Error(err))
			a.flash.Warn("Lost daemon events, retrying")
		}
		select {
		case <-a.ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func (a *App) redrawLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-a.vm.RefreshCh():
			a.app.QueueUpdateDraw(a.render)
		case <-a.flash.Watch():
			a.app.QueueUpdateDraw(a.renderFlash)
		case <-ticker.C:
			a.app.QueueUpdateDraw(a.renderFlash)
		}
	}
}

func (a *App) renderFlash() {
	a.flashBar.Update(a.flash.Current())
}

// render draws the view model. It runs on the UI goroutine.
func (a *App) render() {
	st := a.vm.Status()
	v := a.vm.View()
	if v == nil {
		v = &rpc.View{}
	}
	chatName := ""
	if v.ChatID != "" {
		chatName = a.vm.ChatName(v.ChatID)
	}

	if st != nil {
		user := st.DisplayName
		if user == "" {
			user = st.UserID
		}
		a.header.SetInfo(ui.SessionInfo{
			Session: st.Session,
			User:    user,
			Status:  st.Status,
			Chat:    chatName,
			Call:    st.CallState,
			Online:  st.Online,
			Uptime:  time.Duration(st.UptimeMs) * time.Millisecond,
		})
	}
	a.statusBar.Update(st, chatName)
	a.chatList.Update(a.vm.Chats(), a.vm.ShowPublic(), v.ChatID)
	a.chatView.Update(chatName, a.userID(), v)

	if n := a.vm.FreshNotice(); n != nil {
		a.flash.Show(ui.LevelOf(n.Level), n.Text)
		go func() { _ = a.c.Chat.DismissNotice(a.ctx) }()
	}
	a.syncOverlay(v)
	a.updateHints()
	a.renderFlash()
}

func (a *App) userID() string {
	if st := a.vm.Status(); st != nil {
		return st.UserID
	}
	return ""
}

// syncOverlay shows the daemon's overlay, rebuilding it only when it changed.
func (a *App) syncOverlay(v *rpc.View) {
	key := v.Overlay.Kind + "/" + v.Overlay.MessageID + "/" + v.Overlay.Action
	if key == a.overlayKey {
		return
	}
	a.overlayKey = key

	data := views.OverlayData{
		UserID:       a.userID(),
		ActiveChat:   v.ChatID,
		Chats:        a.vm.Chats(),
		Participants: a.participants,
		Presence:     v.Presence,
	}
	if id := v.Overlay.MessageID; id != "" {
		for i := range v.Messages {
			if v.Messages[i].ID == id {
				m := v.Messages[i]
				data.Message = &m
				data.Affordances = v.Affordances[id]
				break
			}
		}
	}
	if a.overlay.Show(v.Overlay, data) {
		a.pages.ShowPage(pageOverlay)
		a.pages.SendToFront(pageOverlay)
	} else {
		a.pages.HidePage(pageOverlay)
	}
	a.focusPage()
}

func (a *App) openChat(chatID string) {
	a.run("open chat", func(ctx context.Context) error {
		if err := a.c.Chat.OpenChat(ctx, chatID); err != nil {
			return err
		}
		a.app.QueueUpdateDraw(func() {
			a.pages.Reset(pageChats)
			a.pages.Push(pageChat)
			a.focusPage()
		})
		return nil
	})
}

func (a *App) joinChat(chatID string) {
	a.run("join chat", func(ctx context.Context) error {
		if _, err := a.c.Chat.JoinChat(ctx, chatID); err != nil {
			return err
		}
		a.vm.SetPublic(false)
		a.openChat(chatID)
		return nil
	})
}

func (a *App) togglePublic() {
	a.vm.SetPublic(!a.vm.ShowPublic())
	a.chatList.SetFilter("")
	a.run("list chats", a.vm.LoadChats)
}

func (a *App) showHelp() {
	a.pages.Push(pageHelp)
	a.focusPage()
}

// Stop quits the client.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

// overlayHandler forwards overlay choices to the daemon.
type overlayHandler struct {
	a *App
}

func (h overlayHandler) MenuAction(msg timeline.Message, act views.MenuAction) {
	h.a.menuAction(msg, act)
}

func (h overlayHandler) Forward(msgID, chatID string) {
	h.a.run("forward", func(ctx context.Context) error {
		_, err := h.a.c.Message.Forward(ctx, msgID, chatID)
		return err
	})
}

func (h overlayHandler) AddMember(email string) {
	h.a.run("add member", func(ctx context.Context) error {
		_, err := h.a.c.Chat.AddMember(ctx, email)
		return err
	})
}

func (h overlayHandler) Confirm() {
	h.a.run("confirm", h.a.c.Chat.Confirm)
}

func (h overlayHandler) Cancel() {
	h.a.run("cancel", h.a.c.Chat.Cancel)
}
