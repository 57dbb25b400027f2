package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/linkforge/linkforge/internal/models"
)

type clickRecord struct {
	ID         string    `db:"id"`
	LinkID     string    `db:"link_id"`
	DeviceType string    `db:"device_type"`
	Browser    string    `db:"browser"`
	OS         string    `db:"os"`
	Referrer   string    `db:"referrer"`
	UserAgent  string    `db:"user_agent"`
	IPAddress  string    `db:"ip_address"`
	Country    string    `db:"country"`
	City       string    `db:"city"`
	ClickedAt  time.Time `db:"clicked_at"`
}

func (r *clickRecord) ToClickEvent() *models.ClickEvent {
	return &models.ClickEvent{
		ID:         r.ID,
		LinkID:     r.LinkID,
		DeviceType: r.DeviceType,
		Browser:    r.Browser,
		OS:         r.OS,
		Referrer:   r.Referrer,
		UserAgent:  r.UserAgent,
		IPAddress:  r.IPAddress,
		Country:    r.Country,
		City:       r.City,
		ClickedAt:  r.ClickedAt,
	}
}

type ClickRepository struct {
	db *sqlx.DB
}

func NewClickRepository(db *sqlx.DB) *ClickRepository {
	return &ClickRepository{
		db: db,
	}
}

func (r *ClickRepository) Create(ctx context.Context, click *models.ClickEvent) error {
	const op = "database.postgres.ClickRepository.Create"

	query := `INSERT INTO click_events(
			id, link_id, device_type, browser, os,
			referrer, user_agent, ip_address, clicked_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		click.ID, click.LinkID, click.DeviceType, click.Browser, click.OS,
		click.Referrer, click.UserAgent, click.IPAddress, click.ClickedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: failed to create click record: %w", op, err)
	}

	return nil
}

func (r *ClickRepository) ListByLinkID(ctx context.Context, linkID string, limit, offset int) ([]*models.ClickEvent, error) {
	const op = "database.postgres.ClickRepository.ListByLinkID"

	var recs []clickRecord
	query := `SELECT * FROM click_events
		WHERE link_id = $1
		ORDER BY clicked_at DESC
		LIMIT $2 OFFSET $3`

	if err := r.db.SelectContext(ctx, &recs, query, linkID, limit, offset); err != nil {
		return nil, fmt.Errorf("%s: failed to list click records: %w", op, err)
	}

	clicks := make([]*models.ClickEvent, 0, len(recs))
	for i := range recs {
		clicks = append(clicks, recs[i].ToClickEvent())
	}

	return clicks, nil
}

func (r *ClickRepository) CountByLinkID(ctx context.Context, linkID string) (int64, error) {
	const op = "database.postgres.ClickRepository.CountByLinkID"

	var count int64
	query := `SELECT COUNT(*) FROM click_events WHERE link_id = $1`

	if err := r.db.GetContext(ctx, &count, query, linkID); err != nil {
		return 0, fmt.Errorf("%s: failed to count click records: %w", op, err)
	}

	return count, nil
}
