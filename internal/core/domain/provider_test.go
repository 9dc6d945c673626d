package domain

import (
	"errors"
	"testing"
)

func TestServiceIDConstants(t *testing.T) {
	tests := []struct {
		id       ServiceID
		expected string
	}{
		{ServiceSlack, "slack"},
		{ServiceGmail, "gmail"},
		{ServiceDropbox, "dropbox"},
		{ServiceDrive, "drive"},
	}

	for _, tt := range tests {
		if string(tt.id) != tt.expected {
			t.Errorf("expected %s, got %s", tt.expected, tt.id)
		}
		if !tt.id.Valid() {
			t.Errorf("expected %s to be valid", tt.id)
		}
	}
}

func TestParseServiceID(t *testing.T) {
	id, err := ParseServiceID(" Drive ")
	if err != nil || id != ServiceDrive {
		t.Errorf("expected drive, got %q (%v)", id, err)
	}

	_, err = ParseServiceID("teams")
	if !errors.Is(err, ErrUnknownService) {
		t.Errorf("expected ErrUnknownService, got %v", err)
	}
}

func TestServiceInfo(t *testing.T) {
	for _, s := range AllServices() {
		info := s.Info()
		if info.ID != s || info.Name == "" || info.Description == "" || info.Provider == "" {
			t.Errorf("incomplete catalog entry for %s: %+v", s, info)
		}
	}
	if ServiceDrive.Info().Name != "Google Drive" {
		t.Errorf("unexpected drive name %q", ServiceDrive.Info().Name)
	}
	if ServiceGmail.Info().Provider != ProviderGoogle {
		t.Error("expected gmail to use the google provider")
	}
}

func TestProviderConfig_IsConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  ProviderConfig
		want bool
	}{
		{"empty", ProviderConfig{}, false},
		{"missing secret", ProviderConfig{ClientID: "id"}, false},
		{"placeholder secret", ProviderConfig{ClientID: "id", ClientSecret: "REPLACE_WITH_SECRET"}, false},
		{"whitespace", ProviderConfig{ClientID: " ", ClientSecret: "s"}, false},
		{"configured", ProviderConfig{ClientID: "id", ClientSecret: "s"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.IsConfigured(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
