package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/linkforge/linkforge/internal/database"
	"github.com/linkforge/linkforge/internal/models"
	"github.com/stretchr/testify/assert"
)

var (
	errUnknown      = errors.New("unknown error")
	errAffectedRows = errors.New("affected rows error")
)

var linkColumns = []string{
	"id", "slug", "original_url", "is_active", "expires_at", "max_clicks",
	"click_count", "password", "deep_link_ios", "deep_link_android",
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"ab_test_urls", "ab_test_weights", "created_at", "updated_at",
}

const linkID = "9f4f1c2a-5f6e-4d7b-8a9c-0d1e2f3a4b5c"

func linkRows(slug, originalURL string) *sqlmock.Rows {
	return sqlmock.NewRows(linkColumns).
		AddRow(linkID, slug, originalURL, true, nil, nil,
			0, nil, nil, nil,
			nil, nil, nil, nil, nil,
			"{}", "{}", time.Time{}, time.Time{})
}

func setupLinkRepository(t testing.TB, opts ...Option) (*LinkRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}

	db := sqlx.NewDb(mockDB, "sqlmock")
	repo := NewLinkRepository(db, opts...)

	t.Cleanup(func() {
		mockDB.Close()
		db.Close()
	})

	return repo, mock
}

func TestLinkRepository_Create(t *testing.T) {
	link := &models.Link{
		ID:          linkID,
		Slug:        "abc123",
		OriginalURL: "https://example.com",
		IsActive:    true,
	}

	t.Run("slug exists", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`INSERT INTO links`).
			WillReturnError(&pgconn.PgError{Code: uniqueViolationErrCode})

		created, err := repo.Create(context.TODO(), link)

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrSlugExists)
		assert.Nil(t, created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`INSERT INTO links`).
			WillReturnError(errUnknown)

		created, err := repo.Create(context.TODO(), link)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`INSERT INTO links`).
			WillReturnRows(linkRows("abc123", "https://example.com"))

		created, err := repo.Create(context.TODO(), link)

		assert.NoError(t, err)
		assert.NotNil(t, created)
		assert.Equal(t, "abc123", created.Slug)
		assert.Equal(t, "https://example.com", created.OriginalURL)
		assert.True(t, created.IsActive)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkRepository_GetActiveBySlug(t *testing.T) {
	t.Run("link not found", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`SELECT (.+) FROM links`).
			WithArgs("abc123").
			WillReturnError(sql.ErrNoRows)

		link, err := repo.GetActiveBySlug(context.TODO(), "abc123")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrLinkNotFound)
		assert.Nil(t, link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`SELECT (.+) FROM links`).
			WithArgs("abc123").
			WillReturnError(errUnknown)

		link, err := repo.GetActiveBySlug(context.TODO(), "abc123")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`SELECT (.+) FROM links`).
			WithArgs("abc123").
			WillReturnRows(linkRows("abc123", "https://example.com"))

		link, err := repo.GetActiveBySlug(context.TODO(), "abc123")

		assert.NoError(t, err)
		assert.NotNil(t, link)
		assert.Equal(t, linkID, link.ID)
		assert.Equal(t, "https://example.com", link.OriginalURL)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkRepository_Update(t *testing.T) {
	link := &models.Link{
		OriginalURL: "https://new-example.com",
		IsActive:    true,
	}

	t.Run("link not found", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`UPDATE links`).
			WillReturnError(sql.ErrNoRows)

		updated, err := repo.Update(context.TODO(), "abc123", link)

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrLinkNotFound)
		assert.Nil(t, updated)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`UPDATE links`).
			WillReturnRows(linkRows("abc123", "https://new-example.com"))

		updated, err := repo.Update(context.TODO(), "abc123", link)

		assert.NoError(t, err)
		assert.NotNil(t, updated)
		assert.Equal(t, "https://new-example.com", updated.OriginalURL)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkRepository_Deactivate(t *testing.T) {
	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectExec(`UPDATE links`).
			WithArgs("abc123").
			WillReturnError(errUnknown)

		err := repo.Deactivate(context.TODO(), "abc123")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rows affected error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectExec(`UPDATE links`).
			WithArgs("abc123").
			WillReturnResult(sqlmock.NewErrorResult(errAffectedRows))

		err := repo.Deactivate(context.TODO(), "abc123")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errAffectedRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("link not found", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectExec(`UPDATE links`).
			WithArgs("abc123").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Deactivate(context.TODO(), "abc123")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrLinkNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectExec(`UPDATE links`).
			WithArgs("abc123").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Deactivate(context.TODO(), "abc123")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkRepository_IncrementClickCount(t *testing.T) {
	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectExec(`UPDATE links`).
			WithArgs(linkID).
			WillReturnError(errUnknown)

		err := repo.IncrementClickCount(context.TODO(), linkID)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unconditional by default", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectExec(`UPDATE links\s+SET click_count = click_count \+ 1\s+WHERE id = \$1$`).
			WithArgs(linkID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.IncrementClickCount(context.TODO(), linkID)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("conditional when opted in", func(t *testing.T) {
		repo, mock := setupLinkRepository(t, WithConditionalIncrement())

		mock.ExpectExec(`UPDATE links\s+SET click_count = click_count \+ 1\s+WHERE id = \$1 AND \(max_clicks IS NULL OR click_count < max_clicks\)`).
			WithArgs(linkID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.IncrementClickCount(context.TODO(), linkID)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
