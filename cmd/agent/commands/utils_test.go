package commands

import (
	"testing"
)

func TestParseSSHURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		username string
		hostname string
		port     uint
		wantErr  bool
	}{
		{
			name:     "username and hostname",
			url:      "ubuntu@example.com",
			username: "ubuntu",
			hostname: "example.com",
			port:     22,
		},
		{
			name:     "username hostname and port",
			url:      "root@10.0.0.5:2222",
			username: "root",
			hostname: "10.0.0.5",
			port:     2222,
		},
		{
			name:     "empty port keeps default",
			url:      "deploy@host:",
			username: "deploy",
			hostname: "host",
			port:     22,
		},
		{
			name:    "missing username",
			url:     "example.com",
			wantErr: true,
		},
		{
			name:    "empty username",
			url:     "@example.com",
			wantErr: true,
		},
		{
			name:    "empty hostname",
			url:     "ubuntu@",
			wantErr: true,
		},
		{
			name:    "invalid port",
			url:     "ubuntu@example.com:abc",
			wantErr: true,
		},
		{
			name:    "port out of range",
			url:     "ubuntu@example.com:70000",
			wantErr: true,
		},
		{
			name:    "too many colons",
			url:     "ubuntu@example.com:22:extra",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			username, hostname, port, err := parseSSHURL(tt.url)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error for %q", tt.url)
				}
				return
			}

			if err != nil {
				t.Fatalf("parseSSHURL(%q) failed: %v", tt.url, err)
			}
			if username != tt.username || hostname != tt.hostname || port != tt.port {
				t.Fatalf("parseSSHURL(%q) = (%q, %q, %d)", tt.url, username, hostname, port)
			}
		})
	}
}
