package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSQLite(t *testing.T) {
	assert.True(t, IsSQLite("file::memory:?cache=shared"))
	assert.True(t, IsSQLite(":memory:"))
	assert.True(t, IsSQLite("data/groqchat.db"))
	assert.False(t, IsSQLite("app:apppass@tcp(127.0.0.1:3306)/groqchat?parseTime=true"))
}

func TestOpen_SQLiteMemory(t *testing.T) {
	gdb, err := Open("file::memory:")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", gdb.Dialector.Name())
}
