package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/linkforge/linkforge/internal/database"
	"github.com/linkforge/linkforge/internal/metrics"
	"github.com/linkforge/linkforge/internal/models"
	"github.com/linkforge/linkforge/internal/useragent"
)

var (
	// ErrLinkExpired is returned when the link's expiry has passed.
	ErrLinkExpired = errors.New("link expired")
	// ErrClickLimitReached is returned when the link has used up its
	// click budget.
	ErrClickLimitReached = errors.New("click limit reached")
	// ErrPasswordRequired is returned when a protected link is resolved
	// without a password. The caller is expected to retry with one.
	ErrPasswordRequired = errors.New("password required")
	// ErrInvalidPassword is returned when the supplied password doesn't
	// match. Retryable; no attempt state is kept.
	ErrInvalidPassword = errors.New("invalid password")
)

// LinkStore is the read side of the resolve path plus the click counter.
type LinkStore interface {
	GetActiveBySlug(ctx context.Context, slug string) (*models.Link, error)
	IncrementClickCount(ctx context.Context, id string) error
}

// ClickStore is the append-only sink for click events.
type ClickStore interface {
	Create(ctx context.Context, click *models.ClickEvent) error
}

// LinkCache sits in front of LinkStore on the resolve path. Get returns
// (nil, nil) on a miss.
type LinkCache interface {
	Get(ctx context.Context, slug string) (*models.Link, error)
	Set(ctx context.Context, link *models.Link) error
	Delete(ctx context.Context, slug string) error
}

// Visit carries the request metadata a resolution needs.
type Visit struct {
	UserAgent string
	Referrer  string
	IPAddress string
}

// Resolution is the outcome of a successful resolve: where to send the
// visitor and how their client was classified.
type Resolution struct {
	Link      *models.Link
	TargetURL string
	Platform  useragent.Info
}

type ResolverOption func(*Resolver)

// WithLinkCache puts a cache in front of link fetches.
func WithLinkCache(cache LinkCache) ResolverOption {
	return func(r *Resolver) {
		r.cache = cache
	}
}

// WithRandFloat replaces the randomness source for A/B variant draws.
func WithRandFloat(f func() float64) ResolverOption {
	return func(r *Resolver) {
		r.randFloat = f
	}
}

// Resolver owns the redirect resolution flow: fetch, gates, password
// verification, target computation, and best-effort click recording.
type Resolver struct {
	links     LinkStore
	clicks    ClickStore
	cache     LinkCache
	gate      passwordGate
	logger    *slog.Logger
	randFloat func() float64
	now       func() time.Time
}

func NewResolver(links LinkStore, clicks ClickStore, logger *slog.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		links:     links,
		clicks:    clicks,
		logger:    logger,
		randFloat: rand.Float64,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve runs the full gate sequence for a slug. The gate order is fixed:
// not found, expired, click limit, password. The first failing gate wins
// and nothing is recorded.
func (r *Resolver) Resolve(ctx context.Context, slug string, visit Visit) (*Resolution, error) {
	const op = "service.Resolver.Resolve"

	link, err := r.fetch(ctx, slug)
	if err != nil {
		if errors.Is(err, database.ErrLinkNotFound) {
			metrics.RecordBlocked("not_found")
		}
		return nil, fmt.Errorf("%s: failed to resolve slug: %w", op, err)
	}

	if link.Expired(r.now()) {
		metrics.RecordBlocked("expired")
		return nil, fmt.Errorf("%s: %w", op, ErrLinkExpired)
	}

	if link.ClickLimitReached() {
		metrics.RecordBlocked("click_limit_reached")
		return nil, fmt.Errorf("%s: %w", op, ErrClickLimitReached)
	}

	if link.PasswordProtected() {
		metrics.RecordBlocked("password_required")
		return nil, fmt.Errorf("%s: %w", op, ErrPasswordRequired)
	}

	return r.finish(ctx, link, visit), nil
}

// ResolveWithPassword is the follow-up call for protected links. Expiry and
// click-limit gates ran when the password prompt was issued and are not
// re-checked here, so a link expiring between prompt and submission still
// resolves. Each attempt is independent; a mismatch leaves no state behind.
func (r *Resolver) ResolveWithPassword(ctx context.Context, slug, password string, visit Visit) (*Resolution, error) {
	const op = "service.Resolver.ResolveWithPassword"

	link, err := r.fetch(ctx, slug)
	if err != nil {
		if errors.Is(err, database.ErrLinkNotFound) {
			metrics.RecordBlocked("not_found")
		}
		return nil, fmt.Errorf("%s: failed to resolve slug: %w", op, err)
	}

	if !link.PasswordProtected() {
		// Nothing to verify; behave like a plain resolve.
		if link.Expired(r.now()) {
			metrics.RecordBlocked("expired")
			return nil, fmt.Errorf("%s: %w", op, ErrLinkExpired)
		}
		if link.ClickLimitReached() {
			metrics.RecordBlocked("click_limit_reached")
			return nil, fmt.Errorf("%s: %w", op, ErrClickLimitReached)
		}
		return r.finish(ctx, link, visit), nil
	}

	if !r.gate.verify(link, password) {
		metrics.RecordBlocked("invalid_password")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidPassword)
	}

	return r.finish(ctx, link, visit), nil
}

func (r *Resolver) fetch(ctx context.Context, slug string) (*models.Link, error) {
	if r.cache != nil {
		link, err := r.cache.Get(ctx, slug)
		if err != nil {
			r.logger.Warn("link cache read failed", slog.String("slug", slug), slog.Any("err", err))
		} else if link != nil {
			return link, nil
		}
	}

	link, err := r.links.GetActiveBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, link); err != nil {
			r.logger.Warn("link cache write failed", slog.String("slug", slug), slog.Any("err", err))
		}
	}

	return link, nil
}

// finish computes the final target and records the click. Recording is
// best-effort: a failed increment or event write is logged and the visitor
// is redirected anyway.
func (r *Resolver) finish(ctx context.Context, link *models.Link, visit Visit) *Resolution {
	info := useragent.Classify(visit.UserAgent)
	target := r.computeTarget(link, info)

	r.record(ctx, link, info, visit)
	metrics.RecordRedirect()

	return &Resolution{
		Link:      link,
		TargetURL: target,
		Platform:  info,
	}
}

// computeTarget runs the deterministic pipeline: platform deep-link
// override, then UTM stamping, then the weighted A/B draw.
func (r *Resolver) computeTarget(link *models.Link, info useragent.Info) string {
	target := link.OriginalURL

	switch {
	case info.IsIOS && link.DeepLinkIOS != nil && *link.DeepLinkIOS != "":
		target = *link.DeepLinkIOS
	case info.IsAndroid && link.DeepLinkAndroid != nil && *link.DeepLinkAndroid != "":
		target = *link.DeepLinkAndroid
	}

	target = applyUTM(target, link)

	return r.pickVariant(target, link)
}

// applyUTM sets the utm_* query parameters for each non-empty UTM field.
// Existing parameters are preserved; utm_* values are overwritten, never
// appended, so repeated decoration is idempotent.
func applyUTM(target string, link *models.Link) string {
	params := []struct {
		key   string
		value *string
	}{
		{"utm_source", link.UTMSource},
		{"utm_medium", link.UTMMedium},
		{"utm_campaign", link.UTMCampaign},
		{"utm_term", link.UTMTerm},
		{"utm_content", link.UTMContent},
	}

	u, err := url.Parse(target)
	if err != nil {
		return target
	}

	q := u.Query()
	stamped := false
	for _, p := range params {
		if p.value != nil && *p.value != "" {
			q.Set(p.key, *p.value)
			stamped = true
		}
	}
	if !stamped {
		return target
	}

	u.RawQuery = q.Encode()

	return u.String()
}

// pickVariant draws a variant from [target, alternates...] weighted by
// ABTestWeights, defaulting missing or non-positive weights to 1. The draw
// is fresh on every call; visitors are not pinned to a variant.
func (r *Resolver) pickVariant(target string, link *models.Link) string {
	if len(link.ABTestURLs) == 0 {
		return target
	}

	pool := make([]string, 0, len(link.ABTestURLs)+1)
	pool = append(pool, target)
	pool = append(pool, link.ABTestURLs...)

	weights := make([]float64, len(pool))
	for i := range weights {
		weights[i] = 1
	}
	for i, w := range link.ABTestWeights {
		if i >= len(weights) {
			break
		}
		if w > 0 {
			weights[i] = w
		}
	}

	var total float64
	for _, w := range weights {
		total += w
	}

	draw := r.randFloat() * total

	var cum float64
	for i, w := range weights {
		cum += w
		if draw < cum {
			return pool[i]
		}
	}

	return pool[len(pool)-1]
}

func (r *Resolver) record(ctx context.Context, link *models.Link, info useragent.Info, visit Visit) {
	if err := r.links.IncrementClickCount(ctx, link.ID); err != nil {
		r.logger.Error("failed to increment click count",
			slog.String("link_id", link.ID), slog.Any("err", err))
	}

	click := &models.ClickEvent{
		ID:         uuid.NewString(),
		LinkID:     link.ID,
		DeviceType: info.DeviceType,
		Browser:    info.Browser,
		OS:         info.OS,
		Referrer:   visit.Referrer,
		UserAgent:  visit.UserAgent,
		IPAddress:  visit.IPAddress,
		ClickedAt:  r.now().UTC(),
	}

	if err := r.clicks.Create(ctx, click); err != nil {
		r.logger.Error("failed to record click event",
			slog.String("link_id", link.ID), slog.Any("err", err))
		return
	}

	metrics.RecordClickRecorded()
}
