package migration

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "Add Cheque Table", "cheque registry schema")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(mf.UpPath, "_add_cheque_table.up.sql"))
	assert.True(t, strings.HasSuffix(mf.DownPath, "_add_cheque_table.down.sql"))

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "cheque registry schema")

	_, err = os.Stat(mf.DownPath)
	require.NoError(t, err)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "add_payments", sanitizeName("Add  Payments "))
	assert.Equal(t, "fund_v2", sanitizeName("Fund-v2"))
	assert.Equal(t, "cash123", sanitizeName("cash123!!"))
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	_, err := CreateMigration(dir, "first", "")
	require.NoError(t, err)

	migrations, err := ListMigrations(dir)
	require.NoError(t, err)
	require.Len(t, migrations, 1)
	assert.Contains(t, migrations[0], "first")

	empty, err := ListMigrations(dir + "/missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
