package http

import (
	"time"

	"github.com/linkforge/linkforge/internal/models"
	"github.com/linkforge/linkforge/internal/service"
)

// linkRequest represents the payload for creating or updating a link.
type linkRequest struct {
	URL             string     `json:"url" validate:"required,url"`
	Slug            string     `json:"slug,omitempty" validate:"omitempty,min=3,max=32"`
	IsActive        *bool      `json:"is_active,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	MaxClicks       *int64     `json:"max_clicks,omitempty" validate:"omitempty,min=1"`
	Password        *string    `json:"password,omitempty"`
	DeepLinkIOS     *string    `json:"deep_link_ios,omitempty" validate:"omitempty,url"`
	DeepLinkAndroid *string    `json:"deep_link_android,omitempty" validate:"omitempty,url"`
	UTMSource       *string    `json:"utm_source,omitempty"`
	UTMMedium       *string    `json:"utm_medium,omitempty"`
	UTMCampaign     *string    `json:"utm_campaign,omitempty"`
	UTMTerm         *string    `json:"utm_term,omitempty"`
	UTMContent      *string    `json:"utm_content,omitempty"`
	ABTestURLs      []string   `json:"ab_test_urls,omitempty" validate:"omitempty,dive,url"`
	ABTestWeights   []float64  `json:"ab_test_weights,omitempty" validate:"omitempty,dive,gt=0"`
}

func (req linkRequest) toParams() service.LinkParams {
	return service.LinkParams{
		OriginalURL:     req.URL,
		ExpiresAt:       req.ExpiresAt,
		MaxClicks:       req.MaxClicks,
		Password:        req.Password,
		DeepLinkIOS:     req.DeepLinkIOS,
		DeepLinkAndroid: req.DeepLinkAndroid,
		UTMSource:       req.UTMSource,
		UTMMedium:       req.UTMMedium,
		UTMCampaign:     req.UTMCampaign,
		UTMTerm:         req.UTMTerm,
		UTMContent:      req.UTMContent,
		ABTestURLs:      req.ABTestURLs,
		ABTestWeights:   req.ABTestWeights,
	}
}

// passwordRequest represents the payload for resolving a protected link.
type passwordRequest struct {
	Password string `json:"password" validate:"required"`
}

// linkResponse represents a link in API responses. The stored password is
// never exposed, only whether one is set.
type linkResponse struct {
	ID                string     `json:"id"`
	Slug              string     `json:"slug"`
	URL               string     `json:"url"`
	IsActive          bool       `json:"is_active"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	MaxClicks         *int64     `json:"max_clicks,omitempty"`
	ClickCount        int64      `json:"click_count"`
	PasswordProtected bool       `json:"password_protected"`
	DeepLinkIOS       *string    `json:"deep_link_ios,omitempty"`
	DeepLinkAndroid   *string    `json:"deep_link_android,omitempty"`
	UTMSource         *string    `json:"utm_source,omitempty"`
	UTMMedium         *string    `json:"utm_medium,omitempty"`
	UTMCampaign       *string    `json:"utm_campaign,omitempty"`
	UTMTerm           *string    `json:"utm_term,omitempty"`
	UTMContent        *string    `json:"utm_content,omitempty"`
	ABTestURLs        []string   `json:"ab_test_urls,omitempty"`
	ABTestWeights     []float64  `json:"ab_test_weights,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func toLinkResponse(link *models.Link) linkResponse {
	return linkResponse{
		ID:                link.ID,
		Slug:              link.Slug,
		URL:               link.OriginalURL,
		IsActive:          link.IsActive,
		ExpiresAt:         link.ExpiresAt,
		MaxClicks:         link.MaxClicks,
		ClickCount:        link.ClickCount,
		PasswordProtected: link.PasswordProtected(),
		DeepLinkIOS:       link.DeepLinkIOS,
		DeepLinkAndroid:   link.DeepLinkAndroid,
		UTMSource:         link.UTMSource,
		UTMMedium:         link.UTMMedium,
		UTMCampaign:       link.UTMCampaign,
		UTMTerm:           link.UTMTerm,
		UTMContent:        link.UTMContent,
		ABTestURLs:        link.ABTestURLs,
		ABTestWeights:     link.ABTestWeights,
		CreatedAt:         link.CreatedAt,
		UpdatedAt:         link.UpdatedAt,
	}
}

// clickResponse represents a recorded click event in stats responses.
type clickResponse struct {
	DeviceType string    `json:"device_type"`
	Browser    string    `json:"browser"`
	OS         string    `json:"os"`
	Referrer   string    `json:"referrer,omitempty"`
	Country    string    `json:"country,omitempty"`
	City       string    `json:"city,omitempty"`
	ClickedAt  time.Time `json:"clicked_at"`
}

// linkStatsResponse represents a link together with its recent clicks.
type linkStatsResponse struct {
	linkResponse
	RecentClicks []clickResponse `json:"recent_clicks"`
}

func toLinkStatsResponse(link *models.Link, clicks []*models.ClickEvent) linkStatsResponse {
	resp := linkStatsResponse{
		linkResponse: toLinkResponse(link),
		RecentClicks: make([]clickResponse, 0, len(clicks)),
	}

	for _, click := range clicks {
		resp.RecentClicks = append(resp.RecentClicks, clickResponse{
			DeviceType: click.DeviceType,
			Browser:    click.Browser,
			OS:         click.OS,
			Referrer:   click.Referrer,
			Country:    click.Country,
			City:       click.City,
			ClickedAt:  click.ClickedAt,
		})
	}

	return resp
}
