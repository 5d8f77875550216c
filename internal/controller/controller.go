// Package controller drives the active chat: it polls the message store,
// reconciles snapshots with confirmed local actions, and exposes a
// consistent view to the user interface.
package controller

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/huddlehq/huddle/internal/apperr"
	"github.com/huddlehq/huddle/internal/backend"
	"github.com/huddlehq/huddle/internal/bus"
	"github.com/huddlehq/huddle/internal/call"
	"github.com/huddlehq/huddle/internal/conference"
	"github.com/huddlehq/huddle/internal/pins"
	"github.com/huddlehq/huddle/internal/status"
	"github.com/huddlehq/huddle/internal/timeline"
	"go.uber.org/zap"
)

// ErrMessageNotLoaded is returned when an action targets a message that is
// not in the loaded window.
var ErrMessageNotLoaded = &apperr.Error{Kind: apperr.NotFound, Op: "locate message", Detail: "Message not loaded or found"}

// MessageService is the message store the controller polls and mutates.
type MessageService interface {
	ListMessages(ctx context.Context, chatID string) (backend.Snapshot, error)
	CreateMessage(ctx context.Context, d timeline.Draft) (timeline.Message, error)
	PatchMessage(ctx context.Context, chatID, msgID string, p backend.MessagePatch) (timeline.Message, error)
	DeleteMessage(ctx context.Context, chatID, msgID string) error
	ClearMessages(ctx context.Context, chatID string) error
	SetPinned(ctx context.Context, chatID, msgID string, pinned bool) (timeline.Message, error)
}

// ChatService owns chats and their membership.
type ChatService interface {
	ListChats(ctx context.Context, userID string) ([]backend.Chat, error)
	PublicChats(ctx context.Context) ([]backend.Chat, error)
	CreateChat(ctx context.Context, nc backend.NewChat) (backend.Chat, error)
	DeleteChat(ctx context.Context, chatID string) error
	JoinChat(ctx context.Context, chatID string, user backend.Participant) (backend.Chat, error)
	Participants(ctx context.Context, chatID string) ([]backend.Participant, error)
	AddParticipant(ctx context.Context, chatID, email string) (backend.Participant, error)
}

// BlobStore holds attachment bytes.
type BlobStore interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, int64, error)
}

// IdeaService analyzes content for the Idea Hub and keeps the hub.
type IdeaService interface {
	AnalyzeMessage(ctx context.Context, req backend.MessageAnalysis) (backend.Analysis, error)
	AnalyzeFile(ctx context.Context, req backend.FileAnalysis) (backend.Analysis, error)
	ListIdeas(ctx context.Context) ([]backend.Idea, error)
	DeleteIdea(ctx context.Context, id string) error
}

// Options configures a Controller.
type Options struct {
	UserID        string
	DisplayName   string
	PollInterval  time.Duration
	DegradedAfter int
}

// Outcome describes what a reconciliation did with a snapshot.
type Outcome string

const (
	Applied    Outcome = "applied"
	Unchanged  Outcome = "unchanged"
	Stale      Outcome = "stale"
	Superseded Outcome = "superseded"
)

// Controller is the chat session controller. All state is guarded by mu;
// network calls run without it and re-check the chat generation before
// applying their result.
type Controller struct {
	messages MessageService
	chats    ChatService
	blobs    BlobStore
	ideas    IdeaService
	provider conference.Provider
	calls    *call.Machine
	status   *status.Machine
	bus      *bus.Bus
	logger   *zap.Logger
	opts     Options
	now      func() time.Time

	mu         sync.Mutex
	store      *timeline.Store
	differ     timeline.Differ
	pins       pins.Carousel
	gen        uint64
	lastSeq    uint64
	tombstones map[string]struct{}
	hidden     map[string]map[string]struct{}
	reply      *timeline.ReplyRef
	overlay    Overlay
	notice     *Notice
	room       *conference.Room
	failures   int
	stopped    bool

	baseCtx context.Context
	cancel  context.CancelFunc
	kick    chan struct{}
	wg      sync.WaitGroup
}

// New creates a controller with no chat open.
func New(
	messages MessageService,
	chats ChatService,
	blobs BlobStore,
	ideas IdeaService,
	provider conference.Provider,
	calls *call.Machine,
	machine *status.Machine,
	b *bus.Bus,
	logger *zap.Logger,
	opts Options,
) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 3 * time.Second
	}
	if opts.DegradedAfter <= 0 {
		opts.DegradedAfter = 3
	}
	if calls == nil {
		calls = call.NewMachine(b)
	}
	return &Controller{
		messages:   messages,
		chats:      chats,
		blobs:      blobs,
		ideas:      ideas,
		provider:   provider,
		calls:      calls,
		status:     machine,
		bus:        b,
		logger:     logger,
		opts:       opts,
		now:        time.Now,
		store:      timeline.NewStore(),
		tombstones: make(map[string]struct{}),
		hidden:     make(map[string]map[string]struct{}),
		overlay:    NoOverlay{},
		baseCtx:    context.Background(),
	}
}

// Start sets the context that bounds every poll loop.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	c.baseCtx = ctx
	c.mu.Unlock()
}

// ErrStopped is returned by Open once the controller has been stopped.
var ErrStopped = &apperr.Error{Kind: apperr.Conflict, Op: "open chat", Detail: "controller stopped"}

// Stop cancels the active poll loop and waits for it to exit. No chat can
// be opened afterwards.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.stopLoopLocked()
	c.mu.Unlock()
	c.wg.Wait()
}

// Open makes chatID the active chat and starts polling it. The first
// fetch happens immediately.
func (c *Controller) Open(chatID string) error {
	if chatID == "" {
		return apperr.Validationf("open chat", "chat id is required")
	}
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return ErrStopped
	}
	c.stopLoopLocked()
	c.gen++
	gen := c.gen
	c.resetLocked(chatID)

	ctx, cancel := context.WithCancel(c.baseCtx)
	kick := make(chan struct{}, 1)
	c.cancel = cancel
	c.kick = kick
	c.wg.Add(1)
	c.mu.Unlock()

	go c.pollLoop(ctx, gen, chatID, kick)
	c.logger.Info("chat opened", zap.String("chat_id", chatID), zap.Uint64("generation", gen))
	c.bus.Emit(bus.KindChatOpened, chatID)
	return nil
}

// Close deselects the active chat and stops its poll loop.
func (c *Controller) Close() {
	c.mu.Lock()
	prev := c.store.ChatID()
	c.stopLoopLocked()
	c.gen++
	c.resetLocked("")
	c.mu.Unlock()
	if prev != "" {
		c.logger.Info("chat closed", zap.String("chat_id", prev))
		c.bus.Emit(bus.KindChatClosed, prev)
	}
}

// Refresh asks the poll loop for an extra fetch. Requests coalesce.
func (c *Controller) Refresh() {
	c.mu.Lock()
	kick := c.kick
	c.mu.Unlock()
	if kick == nil {
		return
	}
	select {
	case kick <- struct{}{}:
	default:
	}
}

// ActiveChat returns the open chat id, or "".
func (c *Controller) ActiveChat() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.ChatID()
}

func (c *Controller) stopLoopLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.kick = nil
}

func (c *Controller) resetLocked(chatID string) {
	c.differ.Reset()
	c.store.Reset(chatID)
	c.pins.Reset()
	c.lastSeq = 0
	c.tombstones = make(map[string]struct{})
	c.reply = nil
	c.overlay = NoOverlay{}
	c.failures = 0
}

func (c *Controller) pollLoop(ctx context.Context, gen uint64, chatID string, kick <-chan struct{}) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	c.poll(ctx, gen, chatID)
	for {
		select {
		case <-ticker.C:
			c.poll(ctx, gen, chatID)
		case <-kick:
			c.poll(ctx, gen, chatID)
		case <-ctx.Done():
			return
		}
	}
}

func (c *Controller) poll(ctx context.Context, gen uint64, chatID string) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	epoch := c.store.Epoch()
	c.mu.Unlock()

	snap, err := c.messages.ListMessages(ctx, chatID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.pollFailed(gen, chatID, err)
		return
	}
	c.reconcile(gen, epoch, snap)
}

// reconcile applies a snapshot fetched for generation gen, started when
// the store was at epoch.
func (c *Controller) reconcile(gen, epoch uint64, snap backend.Snapshot) Outcome {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return Superseded
	}
	chatID := c.store.ChatID()
	if c.store.Epoch() != epoch || (snap.Seq != 0 && snap.Seq < c.lastSeq) {
		c.mu.Unlock()
		c.logger.Debug("discarding stale snapshot",
			zap.String("chat_id", chatID), zap.Uint64("seq", snap.Seq))
		c.bus.Emit(bus.KindPollDiscarded, chatID)
		return Stale
	}
	c.pollSucceededLocked()

	changed, err := c.differ.Changed(chatID, snap.Messages)
	if err != nil {
		c.mu.Unlock()
		c.logger.Error("snapshot digest failed", zap.String("chat_id", chatID), zap.Error(err))
		return Unchanged
	}
	if snap.Seq > c.lastSeq {
		c.lastSeq = snap.Seq
	}
	if !changed {
		c.mu.Unlock()
		return Unchanged
	}

	c.store.Replace(c.visibleLocked(chatID, snap.Messages))
	c.pins.Sync(c.store.Pinned())
	ended := c.observeCallsLocked()
	rev := c.store.Revision()
	c.mu.Unlock()

	if ended {
		c.logger.Info("call ended by another participant", zap.String("chat_id", chatID))
	}
	c.bus.Emit(bus.KindReplaced, chatID)
	c.bus.Emit(bus.KindPinsChanged, chatID)
	c.logger.Debug("snapshot applied", zap.String("chat_id", chatID), zap.Uint64("revision", rev))
	return Applied
}

// visibleLocked drops ids deleted for everyone or hidden for this user.
// Tombstones the server no longer reports are forgotten.
func (c *Controller) visibleLocked(chatID string, msgs []timeline.Message) []timeline.Message {
	hidden := c.hidden[chatID]
	present := make(map[string]struct{}, len(msgs))
	out := make([]timeline.Message, 0, len(msgs))
	for _, m := range msgs {
		present[m.ID] = struct{}{}
		if _, gone := c.tombstones[m.ID]; gone {
			continue
		}
		if _, skip := hidden[m.ID]; skip {
			continue
		}
		out = append(out, m)
	}
	for id := range c.tombstones {
		if _, ok := present[id]; !ok {
			delete(c.tombstones, id)
		}
	}
	return out
}

// observeCallsLocked ends the local session when its descriptor is seen ended.
func (c *Controller) observeCallsLocked() bool {
	s, ok := c.calls.Session()
	if !ok || s.ChatID != c.store.ChatID() {
		return false
	}
	desc, found := c.store.Find(s.DescriptorID)
	if !found {
		return false
	}
	if c.calls.DescriptorEnded(desc) {
		c.room = nil
		return true
	}
	return false
}

func (c *Controller) pollFailed(gen uint64, chatID string, err error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.failures++
	failures := c.failures
	c.mu.Unlock()

	c.logger.Warn("poll failed", zap.String("chat_id", chatID), zap.Int("consecutive", failures), zap.Error(err))
	c.bus.Emit(bus.KindPollFailed, chatID)
	if failures >= c.opts.DegradedAfter && c.status != nil {
		c.status.TransitionIf(status.Degraded, status.Ready)
	}
}

func (c *Controller) pollSucceededLocked() {
	if c.failures >= c.opts.DegradedAfter && c.status != nil {
		c.status.TransitionIf(status.Ready, status.Degraded)
	}
	c.failures = 0
}

// active returns the open chat and its generation.
func (c *Controller) active(op string) (string, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store.ChatID() == "" {
		return "", 0, apperr.Validationf(op, "no chat selected")
	}
	return c.store.ChatID(), c.gen, nil
}

// applyIfCurrent runs fn under the lock when gen is still the open chat.
func (c *Controller) applyIfCurrent(gen uint64, fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	fn()
	return true
}

func (c *Controller) find(op, id string) (timeline.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store.ChatID() == "" {
		return timeline.Message{}, apperr.Validationf(op, "no chat selected")
	}
	m, ok := c.store.Find(id)
	if !ok {
		return timeline.Message{}, ErrMessageNotLoaded
	}
	return m, nil
}

func (c *Controller) notify(level Level, text string) {
	n := Notice{Level: level, Text: text, At: c.now()}
	c.mu.Lock()
	c.notice = &n
	c.mu.Unlock()
	c.bus.Emit(bus.KindNotice, n)
}

// fail logs err, raises it as a notice and returns it.
func (c *Controller) fail(op string, err error) error {
	level := Error
	if errors.Is(err, apperr.ErrValidation) || errors.Is(err, apperr.ErrNotFound) {
		level = Warn
	}
	c.logger.Warn(op+" failed", zap.Error(err), zap.String("kind", string(apperr.KindOf(err))))
	c.notify(level, apperr.UserMessage(err))
	return err
}

func (c *Controller) setOverlay(o Overlay) {
	c.mu.Lock()
	c.overlay = o
	c.mu.Unlock()
	c.bus.Emit(bus.KindOverlayChanged, o.Kind())
}
