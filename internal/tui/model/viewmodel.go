package model

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/huddlehq/huddle/internal/backend"
	"github.com/huddlehq/huddle/internal/bus"
	"github.com/huddlehq/huddle/internal/rpc"
)

// Source is the daemon state the terminal client renders.
type Source interface {
	Status(ctx context.Context) (*rpc.StatusResponse, error)
	Chats(ctx context.Context, public bool) ([]backend.Chat, error)
	View(ctx context.Context) (*rpc.View, error)
}

// EventSource yields daemon events until the stream ends.
type EventSource interface {
	Recv() (*rpc.Event, error)
}

type clientSource struct {
	c *rpc.Client
}

// FromClient adapts a daemon client to Source.
func FromClient(c *rpc.Client) Source {
	return clientSource{c: c}
}

func (s clientSource) Status(ctx context.Context) (*rpc.StatusResponse, error) {
	return s.c.Session.GetStatus(ctx)
}

func (s clientSource) Chats(ctx context.Context, public bool) ([]backend.Chat, error) {
	resp, err := s.c.Chat.ListChats(ctx, public)
	if err != nil {
		return nil, err
	}
	return resp.Chats, nil
}

func (s clientSource) View(ctx context.Context) (*rpc.View, error) {
	return s.c.Chat.GetView(ctx)
}

// ViewModel caches daemon state and signals the UI when it changes.
type ViewModel struct {
	mu sync.RWMutex

	src     Source
	status  *rpc.StatusResponse
	chats   []backend.Chat
	public  bool
	view    *rpc.View
	notices Notices

	refreshCh chan struct{}
}

func NewViewModel(src Source) *ViewModel {
	return &ViewModel{src: src, refreshCh: make(chan struct{}, 1)}
}

// RefreshCh is signalled after every successful load.
func (vm *ViewModel) RefreshCh() <-chan struct{} {
	return vm.refreshCh
}

func (vm *ViewModel) signalRefresh() {
	select {
	case vm.refreshCh <- struct{}{}:
	default:
	}
}

func (vm *ViewModel) LoadStatus(ctx context.Context) error {
	resp, err := vm.src.Status(ctx)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.status = resp
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// LoadChats fetches the joined chats, or the public directory when
// ShowPublic is on.
func (vm *ViewModel) LoadChats(ctx context.Context) error {
	vm.mu.RLock()
	public := vm.public
	vm.mu.RUnlock()
	chats, err := vm.src.Chats(ctx, public)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	if vm.public == public {
		vm.chats = chats
	}
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

func (vm *ViewModel) LoadView(ctx context.Context) error {
	v, err := vm.src.View(ctx)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.view = v
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// Refresh reloads everything and returns the first error.
func (vm *ViewModel) Refresh(ctx context.Context) error {
	return errors.Join(vm.LoadStatus(ctx), vm.LoadChats(ctx), vm.LoadView(ctx))
}

// Do runs action and then reloads, returning the action's error if any.
func (vm *ViewModel) Do(ctx context.Context, action func(context.Context) error) error {
	if err := action(ctx); err != nil {
		_ = vm.Refresh(ctx)
		return err
	}
	return vm.Refresh(ctx)
}

// Follow reloads on every event until the stream ends or ctx is done.
func (vm *ViewModel) Follow(ctx context.Context, events EventSource) error {
	for {
		ev, err := events.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if isChatEvent(ev.Kind) {
			_ = vm.LoadChats(ctx)
		}
		_ = vm.LoadStatus(ctx)
		_ = vm.LoadView(ctx)
	}
}

// isChatEvent reports whether kind can change the chat list.
func isChatEvent(kind string) bool {
	switch kind {
	case bus.KindChatOpened, bus.KindChatClosed, bus.KindMessageAdded:
		return true
	}
	return false
}

// SetPublic switches the chat list between joined and public chats.
func (vm *ViewModel) SetPublic(public bool) {
	vm.mu.Lock()
	vm.public = public
	vm.chats = nil
	vm.mu.Unlock()
}

func (vm *ViewModel) ShowPublic() bool {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.public
}

func (vm *ViewModel) Status() *rpc.StatusResponse {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.status
}

func (vm *ViewModel) Chats() []backend.Chat {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.chats
}

func (vm *ViewModel) View() *rpc.View {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.view
}

// ChatName resolves id against the loaded chats, falling back to id.
func (vm *ViewModel) ChatName(id string) string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	for _, c := range vm.chats {
		if c.ID == id && c.Name != "" {
			return c.Name
		}
	}
	return id
}

// FreshNotice returns the view's notice the first time it is seen.
func (vm *ViewModel) FreshNotice() *rpc.Notice {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.view == nil {
		return nil
	}
	if vm.notices.Fresh(vm.view.Notice) {
		return vm.view.Notice
	}
	return nil
}
