package domain

import (
	"fmt"
	"strings"
)

// ServiceID identifies a searchable third-party service
type ServiceID string

const (
	ServiceSlack   ServiceID = "slack"
	ServiceGmail   ServiceID = "gmail"
	ServiceDropbox ServiceID = "dropbox"
	ServiceDrive   ServiceID = "drive"
)

// AllServices returns every supported service in display order
func AllServices() []ServiceID {
	return []ServiceID{ServiceSlack, ServiceGmail, ServiceDropbox, ServiceDrive}
}

// Valid reports whether s is one of the supported services
func (s ServiceID) Valid() bool {
	_, ok := serviceCatalog[s]
	return ok
}

// ParseServiceID converts a raw identifier into a ServiceID
func ParseServiceID(raw string) (ServiceID, error) {
	id := ServiceID(strings.ToLower(strings.TrimSpace(raw)))
	if !id.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownService, raw)
	}
	return id, nil
}

// ServiceInfo is the static catalog entry for a service
type ServiceInfo struct {
	ID          ServiceID
	Name        string
	Description string
	Provider    ProviderType
}

var serviceCatalog = map[ServiceID]ServiceInfo{
	ServiceSlack: {
		ID:          ServiceSlack,
		Name:        "Slack",
		Description: "パブリックチャンネルのメッセージを検索",
		Provider:    ProviderSlack,
	},
	ServiceGmail: {
		ID:          ServiceGmail,
		Name:        "Gmail",
		Description: "メール（件名・本文・添付ファイル名）を検索",
		Provider:    ProviderGoogle,
	},
	ServiceDropbox: {
		ID:          ServiceDropbox,
		Name:        "Dropbox",
		Description: "ファイル名・ファイル内テキストを検索",
		Provider:    ProviderDropbox,
	},
	ServiceDrive: {
		ID:          ServiceDrive,
		Name:        "Google Drive",
		Description: "ファイル名・ファイル内テキストを検索",
		Provider:    ProviderGoogle,
	},
}

// Info returns the catalog entry for s. Unknown ids yield a zero value.
func (s ServiceID) Info() ServiceInfo {
	return serviceCatalog[s]
}

// ConnectionStatus is derived from presence and freshness of a stored token
type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "connected"
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusExpired      ConnectionStatus = "expired"
)

// ServiceConnection is the per-service entry of the status listing
type ServiceConnection struct {
	ID          ServiceID        `json:"id"`
	Name        string           `json:"name"`
	Status      ConnectionStatus `json:"status"`
	Description string           `json:"description"`
	AuthURL     string           `json:"auth_url,omitempty"`
}

// ProviderType identifies an OAuth provider. Google backs both Gmail and Drive.
type ProviderType string

const (
	ProviderGoogle  ProviderType = "google"
	ProviderSlack   ProviderType = "slack"
	ProviderDropbox ProviderType = "dropbox"
)

// placeholderSecret is the value shipped in sample env files
const placeholderSecret = "REPLACE_WITH_SECRET"

// ProviderConfig holds OAuth app credentials for a provider
type ProviderConfig struct {
	ClientID     string
	ClientSecret string `masq:"secret"`
}

// IsConfigured checks if both credentials are present and not placeholders
func (c ProviderConfig) IsConfigured() bool {
	id := strings.TrimSpace(c.ClientID)
	secret := strings.TrimSpace(c.ClientSecret)
	if id == "" || secret == "" {
		return false
	}
	return id != placeholderSecret && secret != placeholderSecret
}
