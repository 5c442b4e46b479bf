package db

import (
	"testing"

	"github.com/smallbiznis/fyxed/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectSelectsDriver(t *testing.T) {
	for _, kind := range []string{"postgres", "POSTGRESQL", "mysql", "sqlite"} {
		dialector, err := Dialect(config.Config{DBType: kind, DBPath: "test.db"})
		require.NoError(t, err, kind)
		assert.NotNil(t, dialector, kind)
	}

	_, err := Dialect(config.Config{DBType: "oracle"})
	assert.ErrorIs(t, err, ErrUnsupportedDialect)
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.Config{
		AppName: "fyxed", DBHost: "db", DBUser: "u", DBPassword: "p",
		DBName: "crm", DBPort: "5432", DBSSLMode: "disable",
	})
	assert.Equal(t, "host=db user=u password=p dbname=crm port=5432 sslmode=disable TimeZone=UTC application_name=fyxed", dsn)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "crm.db?_pragma=foreign_keys%281%29&_pragma=busy_timeout%285000%29", SQLiteDSN("crm.db"))
	assert.Equal(t, "file:x?mode=memory", SQLiteDSN("file:x?mode=memory"))
	assert.Contains(t, SQLiteDSN(""), "fyxed.db?")
}
