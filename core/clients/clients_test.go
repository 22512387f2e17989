package clients

import (
	"testing"

	"github.com/fbz-tec/dbxport/core/dialects"
	"github.com/google/go-cmp/cmp"
)

func TestFindClientUnknownKey(t *testing.T) {
	for _, key := range []string{"", "oracle", "SQLite", "postgres", "mongodb"} {
		if _, ok := FindClient(key); ok {
			t.Errorf("FindClient(%q) found a client", key)
		}
	}
}

func TestSupportsMatchesDisabledSet(t *testing.T) {
	for _, cfg := range List() {
		client, ok := FindClient(cfg.Key)
		if !ok {
			t.Fatalf("FindClient(%q) not found", cfg.Key)
		}
		for _, f := range AllFeatures() {
			if got, want := client.Supports(f), !cfg.Disabled.Has(f); got != want {
				t.Errorf("%s.Supports(%s) = %v, want %v", cfg.Key, f, got, want)
			}
		}
		if client.SupportsSocketPath() != client.Supports(ServerSocketPath) {
			t.Errorf("%s.SupportsSocketPath() disagrees with Supports(ServerSocketPath)", cfg.Key)
		}
	}
}

func TestScenarios(t *testing.T) {
	sqlite, _ := FindClient("sqlite")
	if sqlite.Supports(CancelQuery) {
		t.Error("sqlite should not support cancelQuery")
	}

	mysql, _ := FindClient("mysql")
	if !mysql.SupportsSocketPath() {
		t.Error("mysql should support socket paths")
	}
}

func TestCatalogDefaults(t *testing.T) {
	tests := []struct {
		key      string
		port     int
		database string
		disabled []Feature
	}{
		{"cockroachdb", 26257, "", []Feature{ServerSocketPath, ServerDomain}},
		{"postgresql", 5432, "postgres", []Feature{ServerDomain}},
		{"sqlserver", 1433, "", []Feature{ServerSocketPath}},
		{"sqlite", 0, ":memory:", AllFeatures()},
		{"cassandra", 9042, "", []Feature{ServerSSL, ServerSocketPath, ServerSchema, ServerDomain, ScriptCreateTable, CancelQuery}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			c, ok := FindClient(tt.key)
			if !ok {
				t.Fatalf("FindClient(%q) not found", tt.key)
			}
			if c.DefaultPort != tt.port || c.DefaultDatabase != tt.database {
				t.Errorf("defaults = (%d, %q), want (%d, %q)", c.DefaultPort, c.DefaultDatabase, tt.port, tt.database)
			}
			if diff := cmp.Diff(tt.disabled, c.Disabled.Features()); diff != "" {
				t.Errorf("disabled mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAdapterFor(t *testing.T) {
	tests := []struct {
		key     string
		ok      bool
		dialect dialects.Dialect
	}{
		{"cockroachdb", true, dialects.Postgres},
		{"postgresql", true, dialects.Postgres},
		{"mysql", true, dialects.MySQL},
		{"mariadb", true, dialects.MySQL},
		{"sqlserver", true, dialects.SQLServer},
		{"sqlite", true, dialects.SQLite},
		{"redshift", false, ""},
		{"bigquery", false, ""},
		{"cassandra", false, ""},
		{"unknown", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			a, ok := AdapterFor(tt.key)
			if ok != tt.ok {
				t.Fatalf("AdapterFor(%q) ok = %v, want %v", tt.key, ok, tt.ok)
			}
			if ok && a.Dialect() != tt.dialect {
				t.Errorf("AdapterFor(%q).Dialect() = %q, want %q", tt.key, a.Dialect(), tt.dialect)
			}
		})
	}
}

func TestFeatureTokens(t *testing.T) {
	for _, f := range AllFeatures() {
		parsed, err := ParseFeature(f.String())
		if err != nil || parsed != f {
			t.Errorf("ParseFeature(%q) = %v, %v", f.String(), parsed, err)
		}
	}
	if _, err := ParseFeature("server:telepathy"); err == nil {
		t.Error("expected error for unknown token")
	}
	if ServerSocketPath.String() != "server:socketPath" {
		t.Errorf("ServerSocketPath.String() = %q", ServerSocketPath.String())
	}
}

func TestDuplicateKeysPanic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("indexCatalog did not panic on duplicate keys")
		}
	}()
	indexCatalog([]ClientConfig{{Key: "a"}, {Key: "a"}})
}

func TestFeatureSetIgnoresOutOfRange(t *testing.T) {
	s := NewFeatureSet(ServerSSL)
	if s.Has(Feature(-1)) || s.Has(featureCount) {
		t.Error("Has() accepted an out-of-range feature")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}
