package domain

import "context"

// SocialGraph resolves friendship between two users. Implementations live in
// the adapter layer; tests use an in-memory graph.
type SocialGraph interface {
	IsFriend(ctx context.Context, userID, otherID string) (bool, error)
	IsFriendOfFriend(ctx context.Context, userID, otherID string) (bool, error)
}

// IsAllowed decides whether an actor may view or interact with a listing.
// The empty actor ID means an anonymous viewer. The owner is always
// permitted; for everyone else the answer depends on the lifecycle state,
// the listing type and the allow scope. States without a defined policy
// deny access rather than erroring.
func IsAllowed(ctx context.Context, l *Listing, actorID string, graph SocialGraph) (bool, error) {
	if l.IsOwner(actorID) {
		return true, nil
	}

	switch l.State {
	case StateUnpublished, StateHidden:
		// Only the owner, and that case is already handled above.
		return false, nil
	case StateLoanedOut:
		return allowByScope(ctx, l, actorID, graph, true, false, true)
	case StateExpired:
		return allowByScope(ctx, l, actorID, graph, l.IsLoanable(), false, true)
	case StateClosed:
		return allowByScope(ctx, l, actorID, graph, l.IsLoanable(), false, true)
	case StateSold:
		return allowByScope(ctx, l, actorID, graph, false, false, true)
	case StateAvailable:
		switch {
		case l.IsFree() || l.IsForSale():
			return allowByScope(ctx, l, actorID, graph, false, true, true)
		case l.IsLoanable():
			return allowByScope(ctx, l, actorID, graph, true, false, true)
		default:
			return false, nil
		}
	default:
		return false, nil
	}
}

// allowByScope is the shared scope check. requireActor rejects anonymous
// viewers outright. defaultNoScope is the answer when the allow scope is
// unset or unknown; defaultAllScope is the answer for the "all" scope.
func allowByScope(ctx context.Context, l *Listing, actorID string, graph SocialGraph, requireActor, defaultNoScope, defaultAllScope bool) (bool, error) {
	if requireActor && actorID == "" {
		return false, nil
	}

	switch l.Allow {
	case AllowAll:
		return defaultAllScope, nil
	case AllowFriends:
		if actorID == "" {
			return false, nil
		}
		return graph.IsFriend(ctx, actorID, l.OwnerID)
	case AllowFriendsOfFriends:
		if actorID == "" {
			return false, nil
		}
		return graph.IsFriendOfFriend(ctx, actorID, l.OwnerID)
	default:
		return defaultNoScope, nil
	}
}
