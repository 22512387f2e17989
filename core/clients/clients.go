// Package clients is the static catalog of supported database backends and
// their capability sets.
package clients

import (
	"fmt"

	"github.com/fbz-tec/dbxport/core/dialects"
	"github.com/fbz-tec/dbxport/core/sqlbuilder"
)

// ClientConfig describes one backend. Entries are registered once and never modified.
type ClientConfig struct {
	Key             string
	Name            string
	DefaultPort     int // 0 when the backend has no network port
	DefaultDatabase string
	Disabled        FeatureSet
	// Dialect is empty for backends without a SQL dialect.
	Dialect dialects.Dialect
}

// Client is a catalog entry with its capability queries.
type Client struct {
	ClientConfig
}

// Supports reports whether f is not in the client's disabled set.
func (c Client) Supports(f Feature) bool {
	return !c.Disabled.Has(f)
}

func (c Client) SupportsSocketPath() bool {
	return c.Supports(ServerSocketPath)
}

var catalog = []ClientConfig{
	{
		Key:         "cockroachdb",
		Name:        "CockroachDB",
		DefaultPort: 26257,
		Disabled:    NewFeatureSet(ServerDomain, ServerSocketPath),
		Dialect:     dialects.Postgres,
	},
	{
		Key:         "mysql",
		Name:        "MySQL",
		DefaultPort: 3306,
		Disabled:    NewFeatureSet(ServerSchema, ServerDomain),
		Dialect:     dialects.MySQL,
	},
	{
		Key:         "mariadb",
		Name:        "MariaDB",
		DefaultPort: 3306,
		Disabled:    NewFeatureSet(ServerSchema, ServerDomain),
		Dialect:     dialects.MySQL,
	},
	{
		Key:             "postgresql",
		Name:            "PostgreSQL",
		DefaultPort:     5432,
		DefaultDatabase: "postgres",
		Disabled:        NewFeatureSet(ServerDomain),
		Dialect:         dialects.Postgres,
	},
	{
		Key:             "redshift",
		Name:            "Amazon Redshift",
		DefaultPort:     5432,
		DefaultDatabase: "postgres",
		Disabled:        NewFeatureSet(ServerDomain, ServerSocketPath),
		Dialect:         dialects.Redshift,
	},
	{
		Key:         "sqlserver",
		Name:        "Microsoft SQL Server",
		DefaultPort: 1433,
		Disabled:    NewFeatureSet(ServerSocketPath),
		Dialect:     dialects.SQLServer,
	},
	{
		Key:             "sqlite",
		Name:            "SQLite",
		DefaultDatabase: ":memory:",
		Disabled: NewFeatureSet(ServerSSL, ServerHost, ServerPort, ServerSocketPath, ServerUser,
			ServerPassword, ServerSchema, ServerDomain, ServerSSH, ScriptCreateTable, CancelQuery),
		Dialect: dialects.SQLite,
	},
	{
		Key:         "cassandra",
		Name:        "Cassandra",
		DefaultPort: 9042,
		Disabled: NewFeatureSet(ServerSSL, ServerSocketPath, ServerSchema, ServerDomain,
			ScriptCreateTable, CancelQuery),
	},
	{
		Key:         "bigquery",
		Name:        "BigQuery",
		DefaultPort: 443,
		Disabled: NewFeatureSet(ServerSSL, ServerSocketPath, ServerUser, ServerPassword,
			ServerSchema, ServerDomain, ServerSSH, ScriptCreateTable),
		Dialect: dialects.BigQuery,
	},
}

var byKey = indexCatalog(catalog)

func indexCatalog(entries []ClientConfig) map[string]ClientConfig {
	m := make(map[string]ClientConfig, len(entries))
	for _, c := range entries {
		if _, dup := m[c.Key]; dup {
			panic(fmt.Sprintf("clients: duplicate client key %q", c.Key))
		}
		m[c.Key] = c
	}
	return m
}

// FindClient looks up a backend by key. ok is false for unknown keys.
func FindClient(key string) (Client, bool) {
	c, ok := byKey[key]
	if !ok {
		return Client{}, false
	}
	return Client{ClientConfig: c}, true
}

// List returns the catalog in registration order.
func List() []ClientConfig {
	out := make([]ClientConfig, len(catalog))
	copy(out, catalog)
	return out
}

// Keys returns every registered key in registration order.
func Keys() []string {
	out := make([]string, len(catalog))
	for i, c := range catalog {
		out[i] = c.Key
	}
	return out
}

// statementBackends are the clients whose data model the statement builder
// can express. Redshift, BigQuery and Cassandra have no adapter.
var statementBackends = map[string]dialects.Dialect{
	"cockroachdb": dialects.Postgres,
	"postgresql":  dialects.Postgres,
	"mysql":       dialects.MySQL,
	"mariadb":     dialects.MySQL,
	"sqlserver":   dialects.SQLServer,
	"sqlite":      dialects.SQLite,
}

// AdapterFor returns the statement builder for a client key, if it has one.
func AdapterFor(key string) (sqlbuilder.Adapter, bool) {
	d, ok := statementBackends[key]
	if !ok {
		return nil, false
	}
	return sqlbuilder.For(d), true
}
