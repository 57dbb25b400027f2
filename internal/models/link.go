package models

import "time"

// Link represents a shortened link and the rules that gate its resolution.
type Link struct {
	// ID is the unique identifier for the link record.
	ID string
	// Slug is the unique short code used to address the link. Immutable.
	Slug string
	// OriginalURL is the default redirect target.
	OriginalURL string
	// IsActive marks whether the link is resolvable at all. Deactivation
	// is a soft delete; the record stays queryable for stats.
	IsActive bool
	// ExpiresAt, when set, makes the link unresolvable once in the past.
	ExpiresAt *time.Time
	// MaxClicks, when set, caps how many times the link may resolve.
	MaxClicks *int64
	// ClickCount tracks successful resolutions. Only the resolver
	// increments it.
	ClickCount int64
	// Password, when set, must be supplied before the link resolves.
	// Stored and compared in plaintext; see service.passwordGate.
	Password *string
	// DeepLinkIOS and DeepLinkAndroid override the target for requests
	// classified as the matching platform.
	DeepLinkIOS     *string
	DeepLinkAndroid *string
	// UTM fields are stamped onto the chosen target as utm_* query
	// parameters when non-empty.
	UTMSource   *string
	UTMMedium   *string
	UTMCampaign *string
	UTMTerm     *string
	UTMContent  *string
	// ABTestURLs holds alternate destinations. The resolved target acts
	// as option 0; alternates follow in order. ABTestWeights is parallel
	// to the candidate pool; missing entries default to weight 1.
	ABTestURLs    []string
	ABTestWeights []float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PasswordProtected reports whether resolution must pause for a password.
func (l *Link) PasswordProtected() bool {
	return l.Password != nil && *l.Password != ""
}

// Expired reports whether the link's expiry, if any, has passed.
func (l *Link) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

// ClickLimitReached reports whether the link has used up its click budget.
func (l *Link) ClickLimitReached() bool {
	return l.MaxClicks != nil && l.ClickCount >= *l.MaxClicks
}

// ClickEvent represents a single successful resolution of a link.
type ClickEvent struct {
	ID         string
	LinkID     string
	DeviceType string
	Browser    string
	OS         string
	Referrer   string
	UserAgent  string
	IPAddress  string
	// Country and City are enriched out-of-band from the IP address and
	// are empty at record time.
	Country   string
	City      string
	ClickedAt time.Time
}
