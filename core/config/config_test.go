package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fbz-tec/dbxport/core/schema"
	"github.com/google/go-cmp/cmp"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DB_CLIENT", "DB_USER", "DB_PASS", "DB_HOST", "DB_PORT", "DB_NAME", "DB_SCHEMA", "DB_SOCKET", "DB_SSLMODE"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	got := LoadConfig()
	want := Config{Client: "postgresql", User: "postgres", Host: "localhost", Port: 5432, Name: "postgres"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigClientDefaults(t *testing.T) {
	tests := []struct {
		client string
		want   Config
	}{
		{"mysql", Config{Client: "mysql", Host: "localhost", Port: 3306}},
		{"cockroachdb", Config{Client: "cockroachdb", Host: "localhost", Port: 26257}},
		{"SQLite", Config{Client: "sqlite", Name: ":memory:"}},
	}

	for _, tt := range tests {
		t.Run(tt.client, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DB_CLIENT", tt.client)
			if diff := cmp.Diff(tt.want, LoadConfig()); diff != "" {
				t.Errorf("LoadConfig() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASS", "s3cret")
	t.Setenv("DB_NAME", "shop")
	t.Setenv("DB_SSLMODE", "require")

	got := LoadConfig()
	want := Config{Client: "postgresql", User: "app", Pass: "s3cret", Host: "db.internal", Port: 6543, Name: "shop", SSLMode: "require"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{Client: "postgresql", User: "postgres", Host: "localhost", Port: 5432, Name: "postgres"}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown client", func(c *Config) { c.Client = "oracle" }, "unknown"},
		{"bad port", func(c *Config) { c.Port = 70000 }, "DB_PORT"},
		{"empty host", func(c *Config) { c.Host = " " }, "DB_HOST"},
		{"socket replaces host", func(c *Config) { c.Host = ""; c.Socket = "/var/run/postgresql" }, ""},
		{"empty user", func(c *Config) { c.User = "" }, "DB_USER"},
		{"empty name", func(c *Config) { c.Name = "" }, "DB_NAME"},
		{"socket unsupported", func(c *Config) { c.Client = "redshift"; c.Socket = "/tmp" }, "DB_SOCKET"},
		{"schema unsupported", func(c *Config) { c.Client = "mysql"; c.Schema = "public" }, "DB_SCHEMA"},
		{"sqlite file", func(c *Config) { *c = Config{Client: "sqlite", Name: "data.db"} }, ""},
		{"sqlite with host", func(c *Config) { *c = Config{Client: "sqlite", Name: "data.db", Host: "x"} }, "DB_HOST"},
		{"user unsupported", func(c *Config) { c.Client = "bigquery" }, "DB_USER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestGetConnectionString(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "postgres",
			cfg:  Config{Client: "postgresql", User: "app", Pass: "p@ss", Host: "db", Port: 5432, Name: "shop", SSLMode: "disable"},
			want: "postgres://app:p%40ss@db:5432/shop?sslmode=disable",
		},
		{
			name: "cockroach uses postgres scheme",
			cfg:  Config{Client: "cockroachdb", User: "root", Host: "crdb", Port: 26257, Name: "defaultdb"},
			want: "postgres://root:@crdb:26257/defaultdb",
		},
		{
			name: "socket",
			cfg:  Config{Client: "postgresql", User: "app", Socket: "/var/run/postgresql", Port: 5432, Name: "shop"},
			want: "postgres://app:@/shop?host=%2Fvar%2Frun%2Fpostgresql&port=5432",
		},
		{
			name: "sqlite path",
			cfg:  Config{Client: "sqlite", Name: "/tmp/app.db"},
			want: "/tmp/app.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.GetConnectionString(); got != tt.want {
				t.Errorf("GetConnectionString() = %s, want %s", got, tt.want)
			}
		})
	}
}

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write profile: %v", err)
	}
	return path
}

func TestLoadProfile(t *testing.T) {
	path := writeProfile(t, `
format: sql
compression: gzip
batch_size: 1000
create_table_header: true
filters:
  - field: status
    type: "="
    value: active
template:
  row: row.tpl
`)

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if *p.Format != "sql" || *p.Compression != "gzip" || *p.BatchSize != 1000 || !*p.CreateTableHeader {
		t.Errorf("LoadProfile() = %+v", p)
	}
	if p.IncludeSchema != nil || p.Output != nil {
		t.Error("unset keys should stay nil")
	}
	want := []schema.TableFilter{{Field: "status", Type: "=", Value: "active"}}
	if diff := cmp.Diff(want, p.Filters); diff != "" {
		t.Errorf("Filters mismatch (-want +got):\n%s", diff)
	}
	if p.Template == nil || p.Template.Row != "row.tpl" {
		t.Errorf("Template = %+v", p.Template)
	}
}

func TestLoadProfileErrors(t *testing.T) {
	tests := map[string]string{
		"unknown key":     "formt: sql\n",
		"long delimiter":  "delimiter: ';;'\n",
		"zero batch":      "batch_size: 0\n",
		"filter no field": "filters:\n  - type: '='\n    value: 1\n",
		"not yaml":        "format: [unterminated\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadProfile(writeProfile(t, body)); err == nil {
				t.Error("LoadProfile() expected error")
			}
		})
	}

	if _, err := LoadProfile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadProfile(missing) expected error")
	}
}
