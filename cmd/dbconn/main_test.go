package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madinamutiyeva/SingletonPattern/internal/db"
)

// seedDatabase creates a file-backed SQLite database with a users table and
// returns the path of a properties file pointing at it.
func seedDatabase(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "database_config.properties")
	content := "url=jdbc:sqlite:" + filepath.Join(dir, "app.db") + "\nusername=sa\npassword=\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	ctx := context.Background()
	m, err := db.OpenFile(ctx, configPath)
	require.NoError(t, err)
	defer m.CloseConnection()

	for _, stmt := range []string{
		"CREATE TABLE users (id INTEGER PRIMARY KEY, username TEXT, password TEXT)",
		"INSERT INTO users VALUES (1, 'alice', 'wonderland'), (2, 'bob', 'builder')",
	} {
		_, err := m.ExecuteUpdate(ctx, stmt)
		require.NoError(t, err)
	}
	return configPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUsersCommand(t *testing.T) {
	configPath := seedDatabase(t)

	out, err := execute(t, "users", "--config", configPath)
	require.NoError(t, err)
	assert.Equal(t, "Connection to the database established successfully.\n"+
		"User: 1, alice, wonderland\n"+
		"User: 2, bob, builder\n", out)
}

func TestQueryAndExecCommands(t *testing.T) {
	configPath := seedDatabase(t)

	out, err := execute(t, "exec", "--config", configPath, "UPDATE users SET password = 'changed' WHERE id = 2")
	require.NoError(t, err)
	assert.Equal(t, "1 rows affected\n", out)

	out, err = execute(t, "query", "--config", configPath, "SELECT id, username, password FROM users ORDER BY id")
	require.NoError(t, err)
	assert.Equal(t, "1\talice\twonderland\n2\tbob\tchanged\n", out)
}

func TestQueryCommandFailure(t *testing.T) {
	configPath := seedDatabase(t)

	_, err := execute(t, "query", "--config", configPath, "SELEKT * FROM users")
	var queryErr *db.QueryError
	assert.ErrorAs(t, err, &queryErr)
}

func TestExecCommandMissingConfig(t *testing.T) {
	_, err := execute(t, "exec", "--config", filepath.Join(t.TempDir(), "missing.properties"), "DELETE FROM users")
	assert.Error(t, err)
}

func TestUsersConnectionFailure(t *testing.T) {
	var out bytes.Buffer
	connector := &db.FileConnector{ConfigPath: filepath.Join(t.TempDir(), "missing.properties")}

	err := runUsers(context.Background(), &out, connector)
	assert.Error(t, err)
	assert.Equal(t, "Failed to establish connection to the database.\n", out.String())
}

func TestUsersPrintsNullColumns(t *testing.T) {
	configPath := seedDatabase(t)
	_, err := execute(t, "exec", "--config", configPath, "INSERT INTO users VALUES (3, NULL, NULL)")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runUsers(context.Background(), &out, &db.FileConnector{ConfigPath: configPath}))
	assert.Contains(t, out.String(), "User: 3, null, null\n")
}
