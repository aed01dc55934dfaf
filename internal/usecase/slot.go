package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"FraudDash/internal/domain/models"
)

// ErrSuperseded is returned when a newer request of the same flow has started.
var ErrSuperseded = errors.New("superseded by a newer request")

// Ticket identifies one attempt to fill a slot.
type Ticket struct {
	seq    uint64
	cancel context.CancelFunc
}

// Seq is the attempt's sequence number.
func (t Ticket) Seq() uint64 { return t.seq }

// SlotState is a copy of a slot at one point in time.
type SlotState[T any] struct {
	State     models.FlowState
	Value     T
	HasValue  bool
	Err       string
	UpdatedAt time.Time
	Seq       uint64
}

// Slot holds the latest result of one flow. Every attempt gets a higher
// sequence number; starting an attempt cancels the one in flight, and only
// the latest attempt may write.
//
// Watchers see changes in the order they were made. A change that is still
// waiting to be delivered when a newer one has gone out is dropped.
type Slot[T any] struct {
	mu       sync.Mutex
	seq      uint64
	version  uint64 // bumped on every change, under mu
	cancel   context.CancelFunc
	st       SlotState[T]
	watchers []func(SlotState[T])
	now      func() time.Time

	deliverMu sync.Mutex
	delivered uint64 // version of the last change handed to watchers
}

// NewSlot returns an idle slot.
func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{st: SlotState[T]{State: models.StateIdle}, now: time.Now}
}

// Begin starts a new attempt and keeps the previous value visible while it loads.
func (s *Slot[T]) Begin(parent context.Context) (context.Context, Ticket) {
	return s.begin(parent, false)
}

// BeginFresh starts a new attempt and drops the previous value.
func (s *Slot[T]) BeginFresh(parent context.Context) (context.Context, Ticket) {
	return s.begin(parent, true)
}

func (s *Slot[T]) begin(parent context.Context, fresh bool) (context.Context, Ticket) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	s.cancel = cancel
	s.st.State = models.StateLoading
	s.st.Err = ""
	s.st.Seq = s.seq
	if fresh {
		var zero T
		s.st.Value = zero
		s.st.HasValue = false
	}
	snap, ver, ws := s.changed()
	s.mu.Unlock()

	s.deliver(ws, snap, ver)
	return ctx, Ticket{seq: snap.Seq, cancel: cancel}
}

// Current reports whether t is still the latest attempt.
func (s *Slot[T]) Current(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.seq == s.seq
}

// Commit stores v if t is still the latest attempt.
func (s *Slot[T]) Commit(t Ticket, v T) error {
	return s.finish(t, func(st *SlotState[T]) {
		st.State = models.StateSuccess
		st.Value = v
		st.HasValue = true
		st.Err = ""
	})
}

// Fail records msg if t is still the latest attempt. The previous value is kept.
func (s *Slot[T]) Fail(t Ticket, msg string) error {
	return s.finish(t, func(st *SlotState[T]) {
		st.State = models.StateError
		st.Err = msg
	})
}

func (s *Slot[T]) finish(t Ticket, apply func(*SlotState[T])) error {
	if t.cancel != nil {
		defer t.cancel()
	}

	s.mu.Lock()
	if t.seq != s.seq {
		s.mu.Unlock()
		return ErrSuperseded
	}
	apply(&s.st)
	s.st.UpdatedAt = s.now()
	s.cancel = nil
	snap, ver, ws := s.changed()
	s.mu.Unlock()

	s.deliver(ws, snap, ver)
	return nil
}

// Reset cancels any attempt in flight and returns the slot to idle.
func (s *Slot[T]) Reset() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
	s.st = SlotState[T]{State: models.StateIdle, Seq: s.seq}
	snap, ver, ws := s.changed()
	s.mu.Unlock()

	s.deliver(ws, snap, ver)
}

// Snapshot returns the current state.
func (s *Slot[T]) Snapshot() SlotState[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

// Watch registers fn to be called after every change. fn runs outside the slot
// lock but must not start, finish or reset an attempt on the same slot.
func (s *Slot[T]) Watch(fn func(SlotState[T])) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, fn)
}

// changed records a change and returns what watchers should see; s.mu must be held.
func (s *Slot[T]) changed() (SlotState[T], uint64, []func(SlotState[T])) {
	s.version++
	return s.st, s.version, s.watchers
}

func (s *Slot[T]) deliver(ws []func(SlotState[T]), st SlotState[T], version uint64) {
	if len(ws) == 0 {
		return
	}
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if version <= s.delivered {
		return
	}
	s.delivered = version
	for _, fn := range ws {
		fn(st)
	}
}
