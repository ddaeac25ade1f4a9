package model

import (
	"net/url"
	"strings"
	"time"

	"smm-panel/internal/domain"
)

// ServiceType determines what kind of target URL an order must point at.
type ServiceType string

const (
	ServiceTypeViews       ServiceType = "views"       // video-shaped URL
	ServiceTypeSubscribers ServiceType = "subscribers" // channel-shaped URL
	ServiceTypeWatchTime   ServiceType = "watch_time"  // video-shaped URL
	ServiceTypeLikes       ServiceType = "likes"       // video-shaped URL
	ServiceTypeComments    ServiceType = "comments"    // video-shaped URL
)

// Service groups packages under a marketing category (e.g. "YouTube Views").
type Service struct {
	ID        string
	Name      string
	Slug      string
	Type      ServiceType
	Active    bool
	CreatedAt time.Time
}

func (s *Service) IsZero() bool { return s == nil || s.ID == "" }

// NewService validates and constructs a Service.
func NewService(id, name, slug string, typ ServiceType, active bool) (*Service, error) {
	if id == "" || name == "" || slug == "" {
		return nil, domain.ErrInvalidArgument
	}
	switch typ {
	case ServiceTypeViews, ServiceTypeSubscribers, ServiceTypeWatchTime, ServiceTypeLikes, ServiceTypeComments:
	default:
		return nil, domain.ErrInvalidArgument
	}
	return &Service{ID: id, Name: name, Slug: slug, Type: typ, Active: active, CreatedAt: time.Now()}, nil
}

// CheckTargetURL validates that raw matches the URL shape this service type
// delivers to. Returns a human-readable reason when the shape does not match.
func (t ServiceType) CheckTargetURL(raw string) (ok bool, reason string) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false, "not a valid http(s) URL"
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	path := u.EscapedPath()

	switch t {
	case ServiceTypeSubscribers:
		if isChannelURL(host, path) {
			return true, ""
		}
		return false, "subscribers require a channel URL"
	default:
		if isVideoURL(host, path, u.Query()) {
			return true, ""
		}
		return false, string(t) + " require a video URL"
	}
}

func isChannelURL(host, path string) bool {
	if host != "youtube.com" && host != "m.youtube.com" {
		return false
	}
	return strings.HasPrefix(path, "/channel/") ||
		strings.HasPrefix(path, "/c/") ||
		strings.HasPrefix(path, "/user/") ||
		strings.HasPrefix(path, "/@")
}

func isVideoURL(host, path string, q url.Values) bool {
	if host == "youtu.be" {
		return len(strings.Trim(path, "/")) > 0
	}
	if host != "youtube.com" && host != "m.youtube.com" {
		return false
	}
	if path == "/watch" && q.Get("v") != "" {
		return true
	}
	return strings.HasPrefix(path, "/shorts/") || strings.HasPrefix(path, "/live/")
}
