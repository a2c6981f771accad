package domain

import "time"

type State string

const (
	StateUnpublished State = "unpublished"
	StateAvailable   State = "available"
	StateSold        State = "sold"
	StateLoanedOut   State = "loaned_out"
	StateExpired     State = "expired"
	StateClosed      State = "closed"
	StateHidden      State = "hidden"
)

type Event string

const (
	EventPublish  Event = "publish"
	EventRenew    Event = "renew"
	EventClose    Event = "close"
	EventMarkSold Event = "mark_sold"
	EventLoanOut  Event = "loan_out"
	EventHide     Event = "hide"
	EventReturn   Event = "return"
	EventExpire   Event = "expire"
)

// SideEffect is lifecycle bookkeeping the caller must run after the new
// state has been persisted. Hook implementations must not fail; anything
// that can go wrong there (revoking a promotion, publishing an event) is
// fire-and-forget from the state machine's point of view.
type SideEffect string

const (
	// EffectExpireBookkeeping fires on entry to every state except
	// unpublished, and additionally on exit from available.
	EffectExpireBookkeeping SideEffect = "expire_bookkeeping"
	EffectPublished         SideEffect = "published"
	EffectRenewed           SideEffect = "renewed"
)

type transition struct {
	from []State
	to   State
}

// transitions is the full lifecycle table. An event fired from a state not
// in its from set is rejected with no mutation.
var transitions = map[Event]transition{
	EventPublish:  {from: []State{StateUnpublished}, to: StateAvailable},
	EventRenew:    {from: []State{StateExpired, StateHidden}, to: StateAvailable},
	EventClose:    {from: []State{StateHidden, StateAvailable, StateLoanedOut}, to: StateClosed},
	EventMarkSold: {from: []State{StateAvailable}, to: StateSold},
	EventLoanOut:  {from: []State{StateAvailable}, to: StateLoanedOut},
	EventHide:     {from: []State{StateAvailable, StateLoanedOut}, to: StateHidden},
	EventReturn:   {from: []State{StateLoanedOut}, to: StateHidden},
	EventExpire:   {from: []State{StateUnpublished, StateAvailable, StateHidden}, to: StateExpired},
}

// Apply fires a lifecycle event against the listing. On success the state
// is swapped, bookkeeping timestamps are set and the ordered side effects
// are returned: exit effects of the old state first, then entry effects of
// the new state, then the event's success effects. On rejection the listing
// is left untouched.
func (l *Listing) Apply(event Event, now time.Time) ([]SideEffect, error) {
	t, ok := transitions[event]
	if !ok {
		return nil, &InvalidTransitionError{Event: event, State: l.State}
	}
	allowed := false
	for _, from := range t.from {
		if l.State == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, &InvalidTransitionError{Event: event, State: l.State}
	}

	var effects []SideEffect
	if l.State == StateAvailable {
		effects = append(effects, EffectExpireBookkeeping)
	}
	if t.to != StateUnpublished {
		effects = append(effects, EffectExpireBookkeeping)
	}

	l.State = t.to
	l.UpdatedAt = now

	if t.to == StateAvailable {
		published := now
		l.PublishedAt = &published
		effects = append(effects, EffectPublished)
	}
	switch event {
	case EventRenew, EventReturn:
		renewed := now
		l.RenewedAt = &renewed
		effects = append(effects, EffectRenewed)
	}

	return effects, nil
}

// CanFire reports whether the event would be accepted from the current state.
func (l *Listing) CanFire(event Event) bool {
	t, ok := transitions[event]
	if !ok {
		return false
	}
	for _, from := range t.from {
		if l.State == from {
			return true
		}
	}
	return false
}

// AutoExpireStates are the states the expiration sweep is allowed to force
// into expired. Overdue listings in any other state are left alone.
func AutoExpireStates() []State {
	return []State{StateUnpublished, StateAvailable, StateHidden}
}
