package secrets

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSNFromSecret(t *testing.T) {
	t.Run("plain DSN passes through", func(t *testing.T) {
		dsn, err := DSNFromSecret("  ledger:pw@tcp(db:3306)/ledger \n")
		require.NoError(t, err)
		assert.Equal(t, "ledger:pw@tcp(db:3306)/ledger", dsn)
	})

	t.Run("RDS credential JSON", func(t *testing.T) {
		dsn, err := DSNFromSecret(`{"username":"ledger","password":"p@ss","host":"db.internal","port":3307,"dbname":"books"}`)
		require.NoError(t, err)

		cfg, err := mysql.ParseDSN(dsn)
		require.NoError(t, err)
		assert.Equal(t, "ledger", cfg.User)
		assert.Equal(t, "p@ss", cfg.Passwd)
		assert.Equal(t, "db.internal:3307", cfg.Addr)
		assert.Equal(t, "books", cfg.DBName)
	})

	t.Run("default port", func(t *testing.T) {
		dsn, err := DSNFromSecret(`{"username":"ledger","password":"pw","host":"db","dbname":"books"}`)
		require.NoError(t, err)
		assert.Contains(t, dsn, "tcp(db:3306)")
	})

	tests := []struct {
		name   string
		secret string
	}{
		{name: "empty", secret: " "},
		{name: "broken JSON", secret: `{"username":`},
		{name: "missing host", secret: `{"username":"ledger","dbname":"books"}`},
		{name: "bad port", secret: `{"username":"ledger","host":"db","dbname":"books","port":"abc"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DSNFromSecret(tt.secret)
			assert.Error(t, err)
		})
	}
}
