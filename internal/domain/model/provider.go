package model

import (
	"time"

	"smm-panel/internal/domain"
)

// Provider is an upstream SMM panel that fulfills orders. Packages reference
// a provider; orders reach it only through their package, so provider
// credentials are never cloned into orders.
type Provider struct {
	ID       string
	Name     string
	Slug     string // selects the adapter implementation; "generic" is the fallback
	APIURL   string
	APIKey   string
	Active   bool
	Settings map[string]string // free-form adapter settings

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Provider) IsZero() bool { return p == nil || p.ID == "" }

// NewProvider validates and constructs a Provider.
func NewProvider(id, name, slug, apiURL, apiKey string) (*Provider, error) {
	if id == "" || name == "" || apiURL == "" || apiKey == "" {
		return nil, domain.ErrInvalidArgument
	}
	if slug == "" {
		slug = "generic"
	}
	now := time.Now()
	return &Provider{
		ID: id, Name: name, Slug: slug, APIURL: apiURL, APIKey: apiKey,
		Active: true, CreatedAt: now, UpdatedAt: now,
	}, nil
}
