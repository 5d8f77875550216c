// Package call tracks the local participant's relationship to a shared call.
package call

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/huddlehq/huddle/internal/apperr"
	"github.com/huddlehq/huddle/internal/bus"
	"github.com/huddlehq/huddle/internal/timeline"
)

// State is the local call state.
type State string

const (
	Idle    State = "IDLE"
	PreJoin State = "PRE_JOIN"
	Active  State = "ACTIVE"
	Ended   State = "ENDED"
)

// Kind is the media kind of a call. It is fixed for the life of the call.
type Kind string

const (
	Video Kind = "video"
	Voice Kind = "voice"
)

// KindOf returns the kind declared by a call descriptor.
func KindOf(meta *timeline.CallMeta) Kind {
	if meta != nil && meta.IsVoice {
		return Voice
	}
	return Video
}

var validTransitions = map[State][]State{
	Idle:    {PreJoin},
	PreJoin: {Active, Idle, Ended},
	Active:  {Idle, Ended},
	Ended:   {Idle},
}

// Session is the local view of one call. It is linked to the shared
// descriptor message by RoomID and DescriptorID.
type Session struct {
	RoomID       string `json:"roomId"`
	ChatID       string `json:"chatId"`
	DescriptorID string `json:"descriptorId"`
	Kind         Kind   `json:"kind"`
	State        State  `json:"state"`
	IsInitiator  bool   `json:"isInitiator"`
}

// Change is the payload of call.state_changed events.
type Change struct {
	From    State
	To      State
	Session Session
}

// Machine enforces at most one live call and the transitions between states.
type Machine struct {
	mu      sync.RWMutex
	state   State
	session Session
	bus     *bus.Bus
	now     func() time.Time
	lastMs  int64
	// starting is set between Reserve and Started while the descriptor
	// is being created.
	starting bool
}

// NewMachine creates a machine in the Idle state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{state: Idle, bus: b, now: time.Now}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Session returns the live session, if any.
func (m *Machine) Session() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == Idle {
		return Session{}, false
	}
	s := m.session
	s.State = m.state
	return s, true
}

// Busy reports whether a call is being started, in PreJoin or Active.
func (m *Machine) Busy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.starting || m.state == PreJoin || m.state == Active
}

// Reserve claims the machine for a call that is about to be created.
// Joins fail until Started or Release.
func (m *Machine) Reserve() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.starting || m.state == PreJoin || m.state == Active {
		return apperr.New(apperr.Conflict, "start call", "already in a call")
	}
	m.starting = true
	return nil
}

// Release drops a reservation whose descriptor was never created.
func (m *Machine) Release() {
	m.mu.Lock()
	m.starting = false
	m.mu.Unlock()
}

// NewRoomID returns a room id for chatID that differs from every id
// produced earlier by this machine.
func (m *Machine) NewRoomID(chatID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms := m.now().UnixMilli()
	if ms <= m.lastMs {
		ms = m.lastMs + 1
	}
	m.lastMs = ms
	return fmt.Sprintf("TeamChat-%s-%d", chatID, ms)
}

// Started enters PreJoin as the initiator of a freshly created descriptor
// and consumes the reservation.
func (m *Machine) Started(desc timeline.Message) error {
	if !desc.IsCall() {
		m.Release()
		return apperr.Validationf("start call", "message %s is not a call", desc.ID)
	}
	return m.enter(desc, true, true)
}

// Join enters PreJoin for an existing active call. The media kind always
// comes from the descriptor.
func (m *Machine) Join(desc timeline.Message, currentUser string) error {
	if !desc.IsCall() {
		return apperr.Validationf("join call", "message %s is not a call", desc.ID)
	}
	if desc.CallMeta.Status == timeline.CallEnded {
		return apperr.New(apperr.Conflict, "join call", "call has ended")
	}
	return m.enter(desc, desc.Sender == currentUser, false)
}

func (m *Machine) enter(desc timeline.Message, initiator, reserved bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if reserved {
		m.starting = false
	} else if m.starting {
		return apperr.New(apperr.Conflict, "call", "already starting a call")
	}
	if m.state == PreJoin || m.state == Active {
		return apperr.New(apperr.Conflict, "call", "already in a call")
	}
	if m.state == Ended {
		if err := m.transition(Idle); err != nil {
			return err
		}
	}
	m.session = Session{
		RoomID:       desc.CallMeta.RoomID,
		ChatID:       desc.ChatID,
		DescriptorID: desc.ID,
		Kind:         KindOf(desc.CallMeta),
		IsInitiator:  initiator,
	}
	return m.transition(PreJoin)
}

// Joined records the provider's joined signal.
func (m *Machine) Joined() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transition(Active)
}

// Leave discards the local session. The shared descriptor is not touched.
func (m *Machine) Leave() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Idle {
		return nil
	}
	if err := m.transition(Idle); err != nil {
		return err
	}
	m.session = Session{}
	return nil
}

// End records that the call was ended for everyone.
func (m *Machine) End() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transition(Ended)
}

// DescriptorEnded moves a live session to Ended when its descriptor is
// observed as ended. Returns true when a transition happened.
func (m *Machine) DescriptorEnded(desc timeline.Message) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != PreJoin && m.state != Active {
		return false
	}
	if desc.ID != m.session.DescriptorID || desc.CallActive() {
		return false
	}
	return m.transition(Ended) == nil
}

// transition must be called with mu held.
func (m *Machine) transition(to State) error {
	allowed := validTransitions[m.state]
	if !slices.Contains(allowed, to) {
		return apperr.New(apperr.Conflict, "call", "invalid transition from %s to %s", m.state, to)
	}
	from := m.state
	m.state = to
	if m.bus != nil {
		s := m.session
		s.State = to
		m.bus.Publish(bus.Event{
			Kind:      bus.KindCallChanged,
			Timestamp: m.now(),
			Payload:   Change{From: from, To: to, Session: s},
		})
	}
	return nil
}

// Affordances lists the actions offered for a call descriptor.
type Affordances struct {
	CanJoin  bool `json:"canJoin"`
	CanLeave bool `json:"canLeave"`
	CanEnd   bool `json:"canEnd"`
}

// AffordancesFor returns what currentUser may do with desc given the local
// machine state. Ended calls offer nothing.
func (m *Machine) AffordancesFor(desc timeline.Message, currentUser string) Affordances {
	if !desc.CallActive() {
		return Affordances{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	inThisCall := (m.state == PreJoin || m.state == Active) && m.session.DescriptorID == desc.ID
	return Affordances{
		CanJoin:  m.state == Idle || m.state == Ended,
		CanLeave: inThisCall,
		CanEnd:   desc.Sender == currentUser,
	}
}
