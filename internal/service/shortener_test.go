package service

import (
	"context"
	"errors"
	"testing"

	"github.com/linkforge/linkforge/internal/database"
	"github.com/linkforge/linkforge/internal/models"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ShortenerTestSuite struct {
	suite.Suite
	errUnknown error
	repoMock   *MockLinkStore
	clicksMock *MockClickStore
	shortener  *Shortener
}

func (suite *ShortenerTestSuite) SetupSuite() {
	suite.errUnknown = errors.New("unknown error")
}

func (suite *ShortenerTestSuite) SetupSubTest() {
	suite.repoMock = new(MockLinkStore)
	suite.clicksMock = new(MockClickStore)
	suite.shortener = NewShortener(suite.repoMock, suite.clicksMock, discardLogger(), 7)
}

func (suite *ShortenerTestSuite) TearDownSubTest() {
	suite.repoMock.AssertExpectations(suite.T())
	suite.clicksMock.AssertExpectations(suite.T())
}

func (suite *ShortenerTestSuite) TestCreateLink() {
	params := LinkParams{OriginalURL: "https://example.com"}

	suite.Run("generated slug", func() {
		suite.repoMock.
			On("Create", context.Background(), mock.MatchedBy(func(link *models.Link) bool {
				return len(link.Slug) == 7 && link.IsActive && link.OriginalURL == "https://example.com"
			})).
			Once().
			Return(&models.Link{Slug: "abc1234", OriginalURL: "https://example.com"}, nil)

		link, err := suite.shortener.CreateLink(context.Background(), "", params)

		suite.NoError(err)
		suite.NotNil(link)
		suite.Equal("abc1234", link.Slug)
	})

	suite.Run("retries on slug collision", func() {
		suite.repoMock.
			On("Create", context.Background(), mock.Anything).
			Times(2).
			Return(nil, database.ErrSlugExists)
		suite.repoMock.
			On("Create", context.Background(), mock.Anything).
			Once().
			Return(&models.Link{Slug: "fresh42"}, nil)

		link, err := suite.shortener.CreateLink(context.Background(), "", params)

		suite.NoError(err)
		suite.NotNil(link)
		suite.repoMock.AssertNumberOfCalls(suite.T(), "Create", 3)
	})

	suite.Run("maximum retries error", func() {
		suite.repoMock.
			On("Create", context.Background(), mock.Anything).
			Times(5).
			Return(nil, database.ErrSlugExists)

		link, err := suite.shortener.CreateLink(context.Background(), "", params)

		suite.Error(err)
		suite.ErrorIs(err, ErrMaxRetriesExceeded)
		suite.Nil(link)
	})

	suite.Run("custom slug attempted once", func() {
		suite.repoMock.
			On("Create", context.Background(), mock.MatchedBy(func(link *models.Link) bool {
				return link.Slug == "my-link"
			})).
			Once().
			Return(nil, database.ErrSlugExists)

		link, err := suite.shortener.CreateLink(context.Background(), "my-link", params)

		suite.Error(err)
		suite.ErrorIs(err, database.ErrSlugExists)
		suite.Nil(link)
		suite.repoMock.AssertNumberOfCalls(suite.T(), "Create", 1)
	})

	suite.Run("unknown error", func() {
		suite.repoMock.
			On("Create", context.Background(), mock.Anything).
			Once().
			Return(nil, suite.errUnknown)

		link, err := suite.shortener.CreateLink(context.Background(), "", params)

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(link)
	})
}

func (suite *ShortenerTestSuite) TestGetLink() {
	suite.Run("not found", func() {
		suite.repoMock.
			On("GetBySlug", context.Background(), "abc123").
			Once().
			Return(nil, database.ErrLinkNotFound)

		link, err := suite.shortener.GetLink(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, database.ErrLinkNotFound)
		suite.Nil(link)
	})

	suite.Run("success", func() {
		suite.repoMock.
			On("GetBySlug", context.Background(), "abc123").
			Once().
			Return(&models.Link{Slug: "abc123", OriginalURL: "https://example.com"}, nil)

		link, err := suite.shortener.GetLink(context.Background(), "abc123")

		suite.NoError(err)
		suite.NotNil(link)
		suite.Equal("https://example.com", link.OriginalURL)
	})
}

func (suite *ShortenerTestSuite) TestUpdateLink() {
	params := LinkParams{OriginalURL: "https://new-example.com"}

	suite.Run("not found", func() {
		suite.repoMock.
			On("Update", context.Background(), "abc123", mock.Anything).
			Once().
			Return(nil, database.ErrLinkNotFound)

		link, err := suite.shortener.UpdateLink(context.Background(), "abc123", true, params)

		suite.Error(err)
		suite.ErrorIs(err, database.ErrLinkNotFound)
		suite.Nil(link)
	})

	suite.Run("success invalidates cache", func() {
		cacheMock := new(MockLinkCache)
		cacheMock.
			On("Delete", context.Background(), "abc123").
			Once().
			Return(nil)

		shortener := NewShortener(suite.repoMock, suite.clicksMock, discardLogger(), 7,
			WithShortenerCache(cacheMock))

		suite.repoMock.
			On("Update", context.Background(), "abc123", mock.MatchedBy(func(link *models.Link) bool {
				return link.OriginalURL == "https://new-example.com" && link.IsActive
			})).
			Once().
			Return(&models.Link{Slug: "abc123", OriginalURL: "https://new-example.com"}, nil)

		link, err := shortener.UpdateLink(context.Background(), "abc123", true, params)

		suite.NoError(err)
		suite.NotNil(link)
		cacheMock.AssertExpectations(suite.T())
	})

	suite.Run("cache invalidation failure is not fatal", func() {
		cacheMock := new(MockLinkCache)
		cacheMock.
			On("Delete", context.Background(), "abc123").
			Once().
			Return(suite.errUnknown)

		shortener := NewShortener(suite.repoMock, suite.clicksMock, discardLogger(), 7,
			WithShortenerCache(cacheMock))

		suite.repoMock.
			On("Update", context.Background(), "abc123", mock.Anything).
			Once().
			Return(&models.Link{Slug: "abc123"}, nil)

		link, err := shortener.UpdateLink(context.Background(), "abc123", true, params)

		suite.NoError(err)
		suite.NotNil(link)
		cacheMock.AssertExpectations(suite.T())
	})
}

func (suite *ShortenerTestSuite) TestDeactivateLink() {
	suite.Run("not found", func() {
		suite.repoMock.
			On("Deactivate", context.Background(), "abc123").
			Once().
			Return(database.ErrLinkNotFound)

		err := suite.shortener.DeactivateLink(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, database.ErrLinkNotFound)
	})

	suite.Run("success invalidates cache", func() {
		cacheMock := new(MockLinkCache)
		cacheMock.
			On("Delete", context.Background(), "abc123").
			Once().
			Return(nil)

		shortener := NewShortener(suite.repoMock, suite.clicksMock, discardLogger(), 7,
			WithShortenerCache(cacheMock))

		suite.repoMock.
			On("Deactivate", context.Background(), "abc123").
			Once().
			Return(nil)

		err := shortener.DeactivateLink(context.Background(), "abc123")

		suite.NoError(err)
		cacheMock.AssertExpectations(suite.T())
	})
}

func (suite *ShortenerTestSuite) TestGetLinkStats() {
	suite.Run("not found", func() {
		suite.repoMock.
			On("GetBySlug", context.Background(), "abc123").
			Once().
			Return(nil, database.ErrLinkNotFound)

		link, clicks, err := suite.shortener.GetLinkStats(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, database.ErrLinkNotFound)
		suite.Nil(link)
		suite.Nil(clicks)
	})

	suite.Run("success", func() {
		stored := &models.Link{
			ID:          "9f4f1c2a-5f6e-4d7b-8a9c-0d1e2f3a4b5c",
			Slug:        "abc123",
			OriginalURL: "https://example.com",
			ClickCount:  2,
		}

		suite.repoMock.
			On("GetBySlug", context.Background(), "abc123").
			Once().
			Return(stored, nil)
		suite.clicksMock.
			On("ListByLinkID", context.Background(), stored.ID, 100, 0).
			Once().
			Return([]*models.ClickEvent{
				{ID: "1", LinkID: stored.ID},
				{ID: "2", LinkID: stored.ID},
			}, nil)

		link, clicks, err := suite.shortener.GetLinkStats(context.Background(), "abc123")

		suite.NoError(err)
		suite.NotNil(link)
		suite.Len(clicks, 2)
	})
}

func TestShortener(t *testing.T) {
	suite.Run(t, new(ShortenerTestSuite))
}
