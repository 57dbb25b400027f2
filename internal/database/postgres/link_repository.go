package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/linkforge/linkforge/internal/database"
	"github.com/linkforge/linkforge/internal/models"
)

type linkRecord struct {
	ID              string          `db:"id"`
	Slug            string          `db:"slug"`
	OriginalURL     string          `db:"original_url"`
	IsActive        bool            `db:"is_active"`
	ExpiresAt       *time.Time      `db:"expires_at"`
	MaxClicks       *int64          `db:"max_clicks"`
	ClickCount      int64           `db:"click_count"`
	Password        *string         `db:"password"`
	DeepLinkIOS     *string         `db:"deep_link_ios"`
	DeepLinkAndroid *string         `db:"deep_link_android"`
	UTMSource       *string         `db:"utm_source"`
	UTMMedium       *string         `db:"utm_medium"`
	UTMCampaign     *string         `db:"utm_campaign"`
	UTMTerm         *string         `db:"utm_term"`
	UTMContent      *string         `db:"utm_content"`
	ABTestURLs      pq.StringArray  `db:"ab_test_urls"`
	ABTestWeights   pq.Float64Array `db:"ab_test_weights"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

func (r *linkRecord) ToLink() *models.Link {
	return &models.Link{
		ID:              r.ID,
		Slug:            r.Slug,
		OriginalURL:     r.OriginalURL,
		IsActive:        r.IsActive,
		ExpiresAt:       r.ExpiresAt,
		MaxClicks:       r.MaxClicks,
		ClickCount:      r.ClickCount,
		Password:        r.Password,
		DeepLinkIOS:     r.DeepLinkIOS,
		DeepLinkAndroid: r.DeepLinkAndroid,
		UTMSource:       r.UTMSource,
		UTMMedium:       r.UTMMedium,
		UTMCampaign:     r.UTMCampaign,
		UTMTerm:         r.UTMTerm,
		UTMContent:      r.UTMContent,
		ABTestURLs:      []string(r.ABTestURLs),
		ABTestWeights:   []float64(r.ABTestWeights),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type Option func(*LinkRepository)

// WithConditionalIncrement makes IncrementClickCount refuse to push the
// click count past max_clicks. The default unconditional increment matches
// the historical behavior, where two racing resolutions near the ceiling
// may both pass the gate.
func WithConditionalIncrement() Option {
	return func(r *LinkRepository) {
		r.conditionalIncrement = true
	}
}

type LinkRepository struct {
	db                   *sqlx.DB
	conditionalIncrement bool
}

func NewLinkRepository(db *sqlx.DB, opts ...Option) *LinkRepository {
	r := &LinkRepository{db: db}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *LinkRepository) Create(ctx context.Context, link *models.Link) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.Create"

	rec := new(linkRecord)
	query := `INSERT INTO links(
			id, slug, original_url, expires_at, max_clicks, password,
			deep_link_ios, deep_link_android,
			utm_source, utm_medium, utm_campaign, utm_term, utm_content,
			ab_test_urls, ab_test_weights
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query,
		link.ID, link.Slug, link.OriginalURL, link.ExpiresAt, link.MaxClicks, link.Password,
		link.DeepLinkIOS, link.DeepLinkAndroid,
		link.UTMSource, link.UTMMedium, link.UTMCampaign, link.UTMTerm, link.UTMContent,
		pq.StringArray(link.ABTestURLs), pq.Float64Array(link.ABTestWeights),
	)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrSlugExists)
		}

		return nil, fmt.Errorf("%s: failed to create link record: %w", op, err)
	}

	return rec.ToLink(), nil
}

// GetActiveBySlug fetches the link for the resolve path. Inactive links are
// indistinguishable from missing ones by design.
func (r *LinkRepository) GetActiveBySlug(ctx context.Context, slug string) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.GetActiveBySlug"

	rec := new(linkRecord)
	query := `SELECT * FROM links
		WHERE slug = $1 AND is_active = TRUE`

	err := r.db.GetContext(ctx, rec, query, slug)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get link record: %w", op, err)
	}

	return rec.ToLink(), nil
}

// GetBySlug fetches a link regardless of its active state, for the
// management API and stats.
func (r *LinkRepository) GetBySlug(ctx context.Context, slug string) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.GetBySlug"

	rec := new(linkRecord)
	query := `SELECT * FROM links
		WHERE slug = $1`

	err := r.db.GetContext(ctx, rec, query, slug)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get link record: %w", op, err)
	}

	return rec.ToLink(), nil
}

func (r *LinkRepository) Update(ctx context.Context, slug string, link *models.Link) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.Update"

	rec := new(linkRecord)
	query := `UPDATE links
		SET original_url = $1,
			is_active = $2,
			expires_at = $3,
			max_clicks = $4,
			password = $5,
			deep_link_ios = $6,
			deep_link_android = $7,
			utm_source = $8,
			utm_medium = $9,
			utm_campaign = $10,
			utm_term = $11,
			utm_content = $12,
			ab_test_urls = $13,
			ab_test_weights = $14,
			updated_at = now()
		WHERE slug = $15
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query,
		link.OriginalURL, link.IsActive, link.ExpiresAt, link.MaxClicks, link.Password,
		link.DeepLinkIOS, link.DeepLinkAndroid,
		link.UTMSource, link.UTMMedium, link.UTMCampaign, link.UTMTerm, link.UTMContent,
		pq.StringArray(link.ABTestURLs), pq.Float64Array(link.ABTestWeights),
		slug,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to update link record: %w", op, err)
	}

	return rec.ToLink(), nil
}

func (r *LinkRepository) Deactivate(ctx context.Context, slug string) error {
	const op = "database.postgres.LinkRepository.Deactivate"

	query := `UPDATE links
		SET is_active = FALSE, updated_at = now()
		WHERE slug = $1 AND is_active = TRUE`

	res, err := r.db.ExecContext(ctx, query, slug)
	if err != nil {
		return fmt.Errorf("%s: failed to deactivate link record: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
	}

	return nil
}

// IncrementClickCount bumps the click counter by one. The unconditional
// form does not re-check max_clicks, so concurrent resolutions near the
// ceiling can overshoot it; WithConditionalIncrement closes that window.
func (r *LinkRepository) IncrementClickCount(ctx context.Context, id string) error {
	const op = "database.postgres.LinkRepository.IncrementClickCount"

	query := `UPDATE links
		SET click_count = click_count + 1
		WHERE id = $1`
	if r.conditionalIncrement {
		query = `UPDATE links
			SET click_count = click_count + 1
			WHERE id = $1 AND (max_clicks IS NULL OR click_count < max_clicks)`
	}

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("%s: failed to increment click count: %w", op, err)
	}

	return nil
}
