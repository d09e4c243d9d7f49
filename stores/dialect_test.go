package stores_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/maildrain/stores"
)

func TestParseDialect(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want stores.Dialect
	}{
		{in: "postgres", want: stores.DialectPostgres},
		{in: " MySQL ", want: stores.DialectMySQL},
		{in: "sqlite", want: stores.DialectSQLite},
	}
	for _, tt := range tests {
		got, err := stores.ParseDialect(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := stores.ParseDialect("sqlserver")
	assert.ErrorIs(t, err, stores.ErrUnsupportedDialect)
}
