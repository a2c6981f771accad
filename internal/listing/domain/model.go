package domain

import "time"

type ListingType string

const (
	TypeSale   ListingType = "sale"
	TypeFree   ListingType = "free"
	TypeLoan   ListingType = "loan"
	TypeWanted ListingType = "wanted"
)

type AllowScope string

const (
	AllowAll              AllowScope = "all"
	AllowFriends          AllowScope = "friends"
	AllowFriendsOfFriends AllowScope = "friends_of_friends"
)

// DefaultListingLifetime is how long a new listing stays up before the
// auto-expire sweep picks it up.
const DefaultListingLifetime = 14 * 24 * time.Hour

type Listing struct {
	ID            string
	OwnerID       string
	Title         string
	Details       string
	Type          ListingType
	Allow         AllowScope
	State         State
	Categories    []string
	Subcategories []string
	Photos        []string
	ExpiresAt     time.Time
	PublishedAt   *time.Time
	RenewedAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	// Version is the optimistic concurrency token. The repository refuses a
	// state write when the stored version no longer matches.
	Version int64
}

// CreateListingInput carries everything needed to build a valid listing.
// ExpiresAt may be zero; it is then defaulted to now + DefaultListingLifetime.
type CreateListingInput struct {
	OwnerID       string
	Title         string
	Details       string
	Type          ListingType
	Allow         AllowScope
	Categories    []string
	Subcategories []string
	ExpiresAt     time.Time
}

// NewListing validates the input against the fixed type/scope sets and the
// registered default tags, and returns the listing in its initial state.
// Tag registry lookups happen in the use case layer; the resolved name sets
// are passed in so the entity stays free of I/O.
func NewListing(in CreateListingInput, now time.Time, categoryNames, subcategoryNames []string) (*Listing, error) {
	verr := &ValidationError{}
	if in.OwnerID == "" {
		verr.Add("owner_id", "is required")
	}
	if in.Title == "" {
		verr.Add("title", "is required")
	}
	if in.Details == "" {
		verr.Add("details", "is required")
	}
	if !ValidListingType(string(in.Type)) {
		verr.Add("listing_type", "must be a valid listing type")
	}
	if !ValidAllowScope(string(in.Allow)) {
		verr.Add("allow", "must be a valid allow group")
	}
	for _, c := range in.Categories {
		if !containsName(categoryNames, c) {
			verr.Add("categories", "must be a valid category group")
			break
		}
	}
	for _, s := range in.Subcategories {
		if s == "" {
			continue
		}
		if !containsName(subcategoryNames, s) {
			verr.Add("subcategories", "must be a valid subcategory group")
			break
		}
	}
	if verr.HasViolations() {
		return nil, verr
	}

	expiresAt := in.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = now.Add(DefaultListingLifetime)
	}

	return &Listing{
		OwnerID:       in.OwnerID,
		Title:         in.Title,
		Details:       in.Details,
		Type:          in.Type,
		Allow:         in.Allow,
		State:         StateUnpublished,
		Categories:    in.Categories,
		Subcategories: in.Subcategories,
		Photos:        []string{},
		ExpiresAt:     expiresAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (l *Listing) IsOwner(actorID string) bool {
	return actorID != "" && actorID == l.OwnerID
}

func (l *Listing) IsForSale() bool  { return l.Type == TypeSale }
func (l *Listing) IsFree() bool     { return l.Type == TypeFree }
func (l *Listing) IsLoanable() bool { return l.Type == TypeLoan }
func (l *Listing) IsWanted() bool   { return l.Type == TypeWanted }

func (l *Listing) HasExpired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// ListingTypes is the fixed business classification set.
func ListingTypes() []ListingType {
	return []ListingType{TypeFree, TypeSale, TypeLoan, TypeWanted}
}

// AllowScopes is the fixed visibility scope set.
func AllowScopes() []AllowScope {
	return []AllowScope{AllowFriends, AllowFriendsOfFriends, AllowAll}
}

func ValidListingType(t string) bool {
	if t == "" {
		return false
	}
	for _, lt := range ListingTypes() {
		if string(lt) == t {
			return true
		}
	}
	return false
}

func ValidAllowScope(s string) bool {
	if s == "" {
		return false
	}
	for _, as := range AllowScopes() {
		if string(as) == s {
			return true
		}
	}
	return false
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
