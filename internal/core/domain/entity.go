package domain

import (
	"time"
)

// EntityType identifies a kind of portal-managed resource.
type EntityType string

const (
	EntityAccessPoint  EntityType = "access_point"
	EntitySSID         EntityType = "ssid"
	EntityCoverageZone EntityType = "coverage_zone"
	EntitySiteSurvey   EntityType = "site_survey"
	EntityAPIToken     EntityType = "api_token"
	EntityScheduledJob EntityType = "scheduled_job"
)

// AccessPoint represents a managed wireless access point.
type AccessPoint struct {
	ID        string    `json:"id"`
	SiteID    string    `json:"site_id"`
	Name      string    `json:"name"`
	MAC       string    `json:"mac"`
	Model     string    `json:"model"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SSID represents a broadcast network on one or more access points.
type SSID struct {
	ID       string `json:"id"`
	SiteID   string `json:"site_id"`
	Name     string `json:"name"`
	VLANID   int    `json:"vlan_id"`
	Security string `json:"security"`
	Enabled  bool   `json:"enabled"`
}

// CoverageZone represents a served geographic area.
type CoverageZone struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region"`
	Active bool   `json:"active"`
}

// SiteSurvey represents a scheduled or completed field survey.
type SiteSurvey struct {
	ID          string    `json:"id"`
	SiteID      string    `json:"site_id"`
	Surveyor    string    `json:"surveyor"`
	Status      string    `json:"status"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// APIToken represents a portal API credential.
type APIToken struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Scopes    []string  `json:"scopes"`
	Revoked   bool      `json:"revoked"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ScheduledJob represents a recurring background task definition.
type ScheduledJob struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Schedule string `json:"schedule"`
	Enabled  bool   `json:"enabled"`
}
