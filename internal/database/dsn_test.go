package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSNDefaults(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{User: "garden", Name: "tarot"})
	require.NoError(t, err)
	require.Equal(t, "host=localhost port=5432 user=garden dbname=tarot sslmode=disable", dsn)
}

func TestBuildPostgresDSNWithOptions(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User:     "garden",
		Name:     "tarot",
		Host:     "db.internal",
		Port:     6543,
		Password: "pass",
		Options: map[string]string{
			"sslmode":     "require",
			"search_path": "public",
		},
	})
	require.NoError(t, err)

	for _, part := range []string{
		"host=db.internal",
		"port=6543",
		"password=pass",
		"sslmode=require",
		"search_path=public",
	} {
		require.True(t, strings.Contains(dsn, part), "dsn %q missing %q", dsn, part)
	}
	require.False(t, strings.Contains(dsn, "sslmode=disable"))
}

func TestBuildPostgresDSNPrefersOverride(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{DSN: "postgres://override"})
	require.NoError(t, err)
	require.Equal(t, "postgres://override", dsn)
}

func TestBuildMySQLDSNDefaults(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{User: "garden", Name: "tarot"})
	require.NoError(t, err)
	require.Equal(t, "garden@tcp(127.0.0.1:3306)/tarot?charset=utf8mb4&loc=Local&parseTime=True", dsn)
}

func TestBuildMySQLDSNWithPasswordAndOptions(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User:     "garden",
		Password: "secret",
		Name:     "tarot",
		Host:     "mysql.internal",
		Port:     3307,
		Options:  map[string]string{"tls": "skip-verify"},
	})
	require.NoError(t, err)
	require.Equal(t, "garden:secret@tcp(mysql.internal:3307)/tarot?charset=utf8mb4&loc=Local&parseTime=True&tls=skip-verify", dsn)
}

func TestBuildDSNRequiresUserAndName(t *testing.T) {
	_, err := buildPostgresDSN(Config{})
	require.Error(t, err)
	_, err = buildMySQLDSN(Config{Host: "localhost"})
	require.Error(t, err)
}
