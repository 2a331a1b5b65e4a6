package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    *Config
		wantErr bool
	}{
		{
			name: "defaults applied",
			env:  map[string]string{},
			want: &Config{
				DatabasePath:    "./data/wall-e.db",
				RulesPath:       "./rules.json",
				LogLevel:        "info",
				CredentialsPath: "./gmail_credentials.json",
				TokenPath:       "./gmail_tokens.json",
				GmailRPS:        4,
			},
		},
		{
			name: "all values set",
			env: map[string]string{
				"DATABASE_PATH":          "/tmp/mail.db",
				"RULES_PATH":             "/etc/wall-e/rules.yaml",
				"LOG_LEVEL":              "debug",
				"GMAIL_CREDENTIALS_PATH": "/secrets/creds.json",
				"GMAIL_TOKEN_PATH":       "/secrets/token.json",
				"GMAIL_RPS":              "10",
			},
			want: &Config{
				DatabasePath:    "/tmp/mail.db",
				RulesPath:       "/etc/wall-e/rules.yaml",
				LogLevel:        "debug",
				CredentialsPath: "/secrets/creds.json",
				TokenPath:       "/secrets/token.json",
				GmailRPS:        10,
			},
		},
		{
			name: "zero rps disables limiting",
			env:  map[string]string{"GMAIL_RPS": "0"},
			want: &Config{
				DatabasePath:    "./data/wall-e.db",
				RulesPath:       "./rules.json",
				LogLevel:        "info",
				CredentialsPath: "./gmail_credentials.json",
				TokenPath:       "./gmail_tokens.json",
				GmailRPS:        0,
			},
		},
		{
			name:    "invalid rps",
			env:     map[string]string{"GMAIL_RPS": "fast"},
			wantErr: true,
		},
		{
			name:    "negative rps",
			env:     map[string]string{"GMAIL_RPS": "-1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{
				"DATABASE_PATH", "RULES_PATH", "LOG_LEVEL",
				"GMAIL_CREDENTIALS_PATH", "GMAIL_TOKEN_PATH", "GMAIL_RPS",
			} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
