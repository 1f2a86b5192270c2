package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const selectUsersQuery = "SELECT * FROM users"

// User is one row of the users table. A NULL id reads as 0.
type User struct {
	ID       int64
	Username sql.NullString
	Password sql.NullString
}

// ListUsers reads every row of the users table. Columns are matched by name,
// so the table may carry columns other than id, username and password.
func ListUsers(ctx context.Context, m *Manager) ([]User, error) {
	rows, err := m.ExecuteQuery(ctx, selectUsersQuery)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer m.CloseResultSet(rows)

	scanner, err := newRowScanner(rows)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(scanner.columns))
	for i, name := range scanner.names() {
		index[strings.ToLower(name)] = i
	}
	for _, name := range []string{"id", "username", "password"} {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("users table has no %q column", name)
		}
	}

	var users []User
	for rows.Next() {
		row, err := scanner.scan()
		if err != nil {
			return nil, err
		}

		var id int64
		if v := row[index["id"]]; !v.IsNull() {
			if id, err = v.AsInt(); err != nil {
				return nil, fmt.Errorf("parse user id: %w", err)
			}
		}
		users = append(users, User{
			ID:       id,
			Username: nullString(row[index["username"]]),
			Password: nullString(row[index["password"]]),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

func nullString(v Value) sql.NullString {
	if v.IsNull() {
		return sql.NullString{}
	}
	return sql.NullString{String: v.String(), Valid: true}
}
