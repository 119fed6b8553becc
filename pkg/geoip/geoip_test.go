package geoip

import (
	"context"
	"net"
	"testing"
)

func TestNewMMDBResolver(t *testing.T) {
	tests := []struct {
		name     string
		mmdbPath string
		wantNil  bool
		wantErr  bool
	}{
		{
			name:     "empty path returns nil resolver",
			mmdbPath: "",
			wantNil:  true,
			wantErr:  false,
		},
		{
			name:     "nonexistent file returns nil resolver",
			mmdbPath: "/nonexistent/path/file.mmdb",
			wantNil:  true,
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, err := NewMMDBResolver(tt.mmdbPath, "")

			if tt.wantErr && err == nil {
				t.Errorf("NewMMDBResolver() expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("NewMMDBResolver() unexpected error: %v", err)
			}
			if tt.wantNil && reader != nil {
				t.Errorf("NewMMDBResolver() expected nil resolver but got %v", reader)
			}
			if !tt.wantNil && reader == nil {
				t.Errorf("NewMMDBResolver() expected reader but got nil")
			}

			// Always try to close if we got a reader
			if reader != nil {
				_ = reader.Close()
			}
		})
	}
}

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		name                string
		mmdbPath            string
		wantProvider        string
		wantAttribution     bool
		wantAttributionText string
	}{
		{
			name:                "MaxMind GeoLite2",
			mmdbPath:            "/data/GeoLite2-City.mmdb",
			wantProvider:        "maxmind",
			wantAttribution:     true,
			wantAttributionText: "This product includes GeoLite2 data created by MaxMind, available from https://www.maxmind.com.",
		},
		{
			name:                "DB-IP database",
			mmdbPath:            "/data/dbip-city-lite-2024-01.mmdb",
			wantProvider:        "dbip",
			wantAttribution:     true,
			wantAttributionText: "IP Geolocation by DB-IP (https://db-ip.com)",
		},
		{
			name:                "IP2Location database",
			mmdbPath:            "/data/IP2LOCATION-LITE-DB11.mmdb",
			wantProvider:        "ip2location",
			wantAttribution:     true,
			wantAttributionText: "This site or product includes IP2Location LITE data available from https://lite.ip2location.com.",
		},
		{
			name:                "Unknown provider",
			mmdbPath:            "/data/custom-geo.mmdb",
			wantProvider:        "unknown",
			wantAttribution:     false,
			wantAttributionText: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, requiresAttribution, attributionText := detectProvider(tt.mmdbPath)

			if provider != tt.wantProvider {
				t.Errorf("detectProvider() provider = %v, want %v", provider, tt.wantProvider)
			}
			if requiresAttribution != tt.wantAttribution {
				t.Errorf("detectProvider() requiresAttribution = %v, want %v", requiresAttribution, tt.wantAttribution)
			}
			if attributionText != tt.wantAttributionText {
				t.Errorf("detectProvider() attributionText = %v, want %v", attributionText, tt.wantAttributionText)
			}
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		name string
		ip   string
		want bool
	}{
		{"localhost IPv4", "127.0.0.1", true},
		{"localhost IPv6", "::1", true},
		{"private 10.x", "10.0.0.1", true},
		{"private 192.168.x", "192.168.1.1", true},
		{"private 172.16.x", "172.16.0.1", true},
		{"public Google DNS", "8.8.8.8", false},
		{"public Cloudflare DNS", "1.1.1.1", false},
		{"public IPv6", "2001:4860:4860::8888", false},
		{"link local IPv4", "169.254.1.1", true},
		{"link local IPv6", "fe80::1", true},
		{"unspecified", "0.0.0.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ip := net.ParseIP(tt.ip)
			if ip == nil {
				t.Fatalf("Failed to parse IP: %s", tt.ip)
			}

			got := isPrivateIP(ip)
			if got != tt.want {
				t.Errorf("isPrivateIP(%s) = %v, want %v", tt.ip, got, tt.want)
			}
		})
	}
}

func TestParsePublicIP(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"IP only", "8.8.8.8", "8.8.8.8"},
		{"IP with port", "8.8.8.8:12345", "8.8.8.8"},
		{"IPv6 with port", "[2001:4860:4860::8888]:8080", "2001:4860:4860::8888"},
		{"padded", " 1.1.1.1 ", "1.1.1.1"},
		{"private", "10.0.0.1", ""},
		{"invalid IP", "not-an-ip", ""},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ip := parsePublicIP(tt.input)
			got := ""
			if ip != nil {
				got = ip.String()
			}
			if got != tt.want {
				t.Errorf("parsePublicIP(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCanonicalIP(t *testing.T) {
	tests := map[string]string{
		"8.8.8.8":                     "8.8.8.8",
		" 8.8.8.8:443 ":               "8.8.8.8",
		"[2001:4860:4860::8888]:8080": "2001:4860:4860::8888",
		"2001:4860:4860:0:0:0:0:8888": "2001:4860:4860::8888",
		"10.0.0.1:80":                 "10.0.0.1",
		" garbage ":                   "garbage",
	}
	for input, want := range tests {
		if got := canonicalIP(input); got != want {
			t.Errorf("canonicalIP(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestMMDBResolverWithoutDatabase(t *testing.T) {
	var resolver *MMDBResolver
	if got := resolver.Resolve(context.Background(), "8.8.8.8"); got != Unknown {
		t.Errorf("Resolve() with nil resolver should return Unknown, got %v", got)
	}
	if resolver.Provider() != "none" {
		t.Errorf("Provider() with nil resolver should return 'none'")
	}
	if resolver.RequiresAttribution() {
		t.Errorf("RequiresAttribution() with nil resolver should return false")
	}
	if resolver.AttributionText() != "" {
		t.Errorf("AttributionText() with nil resolver should return empty string")
	}
	if err := resolver.Close(); err != nil {
		t.Errorf("Close() with nil resolver should not fail: %v", err)
	}
}

func TestLocationString(t *testing.T) {
	tests := []struct {
		name string
		loc  Location
		want string
	}{
		{"unknown", Unknown, "Unknown"},
		{"zero value", Location{}, "Unknown"},
		{"full", Location{City: "Pune", Country: "India", ISP: "Jio"}, "Pune, India (ISP: Jio)"},
		{"partial", Location{City: "Pune", Country: "India"}.normalize(), "Pune, India (ISP: Unknown)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loc.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
