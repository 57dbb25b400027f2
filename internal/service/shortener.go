package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/linkforge/linkforge/internal/database"
	"github.com/linkforge/linkforge/internal/metrics"
	"github.com/linkforge/linkforge/internal/models"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ErrMaxRetriesExceeded is returned when the maximum number of retries for
// generating a unique slug is exceeded.
var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating slug")

// LinkRepository is the full read/write surface the management API needs.
type LinkRepository interface {
	Create(ctx context.Context, link *models.Link) (*models.Link, error)
	GetBySlug(ctx context.Context, slug string) (*models.Link, error)
	Update(ctx context.Context, slug string, link *models.Link) (*models.Link, error)
	Deactivate(ctx context.Context, slug string) error
}

// ClickReader lists recorded click events for the stats endpoint.
type ClickReader interface {
	ListByLinkID(ctx context.Context, linkID string, limit, offset int) ([]*models.ClickEvent, error)
}

// LinkParams carries the user-settable fields of a link.
type LinkParams struct {
	OriginalURL     string
	ExpiresAt       *time.Time
	MaxClicks       *int64
	Password        *string
	DeepLinkIOS     *string
	DeepLinkAndroid *string
	UTMSource       *string
	UTMMedium       *string
	UTMCampaign     *string
	UTMTerm         *string
	UTMContent      *string
	ABTestURLs      []string
	ABTestWeights   []float64
}

func (p LinkParams) apply(link *models.Link) {
	link.OriginalURL = p.OriginalURL
	link.ExpiresAt = p.ExpiresAt
	link.MaxClicks = p.MaxClicks
	link.Password = p.Password
	link.DeepLinkIOS = p.DeepLinkIOS
	link.DeepLinkAndroid = p.DeepLinkAndroid
	link.UTMSource = p.UTMSource
	link.UTMMedium = p.UTMMedium
	link.UTMCampaign = p.UTMCampaign
	link.UTMTerm = p.UTMTerm
	link.UTMContent = p.UTMContent
	link.ABTestURLs = p.ABTestURLs
	link.ABTestWeights = p.ABTestWeights
}

type ShortenerOption func(*Shortener)

// WithShortenerCache invalidates cached links on update and deactivate.
func WithShortenerCache(cache LinkCache) ShortenerOption {
	return func(s *Shortener) {
		s.cache = cache
	}
}

// Shortener provides the link management operations behind the API.
type Shortener struct {
	repo       LinkRepository
	clicks     ClickReader
	cache      LinkCache
	logger     *slog.Logger
	slugLength int
}

func NewShortener(repo LinkRepository, clicks ClickReader, logger *slog.Logger, slugLength int, opts ...ShortenerOption) *Shortener {
	s := &Shortener{
		repo:       repo,
		clicks:     clicks,
		logger:     logger,
		slugLength: slugLength,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// CreateLink stores a new link. With an empty slug a random one is
// generated, retrying on collision up to a fixed number of attempts. A
// custom slug is attempted once; a collision surfaces as ErrSlugExists.
func (s *Shortener) CreateLink(ctx context.Context, slug string, params LinkParams) (*models.Link, error) {
	const op = "service.Shortener.CreateLink"
	const maxRetries = 5

	link := &models.Link{
		ID:       uuid.NewString(),
		Slug:     slug,
		IsActive: true,
	}
	params.apply(link)

	if slug != "" {
		created, err := s.repo.Create(ctx, link)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to create link: %w", op, err)
		}

		metrics.RecordLinkCreated()
		return created, nil
	}

	for i := 0; i < maxRetries; i++ {
		generated, err := gonanoid.New(s.slugLength)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate slug: %w", op, err)
		}
		link.Slug = generated

		created, err := s.repo.Create(ctx, link)
		if err != nil {
			if errors.Is(err, database.ErrSlugExists) {
				continue
			}

			return nil, fmt.Errorf("%s: failed to create link: %w", op, err)
		}

		metrics.RecordLinkCreated()
		return created, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

// GetLink retrieves a link by slug regardless of its active state.
func (s *Shortener) GetLink(ctx context.Context, slug string) (*models.Link, error) {
	const op = "service.Shortener.GetLink"

	link, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get link: %w", op, err)
	}

	return link, nil
}

// UpdateLink replaces the user-settable fields of a link. The slug itself
// is immutable. IsActive can flip a deactivated link back on.
func (s *Shortener) UpdateLink(ctx context.Context, slug string, isActive bool, params LinkParams) (*models.Link, error) {
	const op = "service.Shortener.UpdateLink"

	link := &models.Link{IsActive: isActive}
	params.apply(link)

	updated, err := s.repo.Update(ctx, slug, link)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to update link: %w", op, err)
	}

	s.invalidate(ctx, slug)

	return updated, nil
}

// DeactivateLink soft-deletes a link; the record and its click history
// remain queryable.
func (s *Shortener) DeactivateLink(ctx context.Context, slug string) error {
	const op = "service.Shortener.DeactivateLink"

	if err := s.repo.Deactivate(ctx, slug); err != nil {
		return fmt.Errorf("%s: failed to deactivate link: %w", op, err)
	}

	s.invalidate(ctx, slug)

	return nil
}

// GetLinkStats returns the link together with its most recent click events.
func (s *Shortener) GetLinkStats(ctx context.Context, slug string) (*models.Link, []*models.ClickEvent, error) {
	const op = "service.Shortener.GetLinkStats"
	const recentClicks = 100

	link, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to get link: %w", op, err)
	}

	clicks, err := s.clicks.ListByLinkID(ctx, link.ID, recentClicks, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to list clicks: %w", op, err)
	}

	return link, clicks, nil
}

func (s *Shortener) invalidate(ctx context.Context, slug string) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Delete(ctx, slug); err != nil {
		s.logger.Warn("link cache invalidation failed",
			slog.String("slug", slug), slog.Any("err", err))
	}
}
