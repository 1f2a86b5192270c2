package db

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
	DriverMySQL    = "mysql"
)

type dataSource struct {
	driver string
	dsn    string
}

// resolveDataSource maps a connection url onto a registered database/sql
// driver. A leading "jdbc:" is accepted so that existing properties files keep
// working. Credentials embedded in the url take precedence over username and
// password.
func resolveDataSource(rawURL, username, password string) (dataSource, error) {
	u := strings.TrimPrefix(strings.TrimSpace(rawURL), "jdbc:")

	switch {
	case u == ":memory:":
		return dataSource{driver: DriverSQLite, dsn: u}, nil

	case strings.HasPrefix(u, "sqlite:"):
		dsn := strings.TrimPrefix(strings.TrimPrefix(u, "sqlite:"), "//")
		if dsn == "" {
			return dataSource{}, fmt.Errorf("%w: empty sqlite path", ErrUnsupportedURL)
		}
		return dataSource{driver: DriverSQLite, dsn: dsn}, nil

	case strings.HasPrefix(u, "file:"):
		return dataSource{driver: DriverSQLite, dsn: u}, nil

	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		dsn, err := postgresDSN(u, username, password)
		if err != nil {
			return dataSource{}, err
		}
		return dataSource{driver: DriverPostgres, dsn: dsn}, nil

	case strings.HasPrefix(u, "mysql://"):
		dsn, err := mysqlDSN(u, username, password)
		if err != nil {
			return dataSource{}, err
		}
		return dataSource{driver: DriverMySQL, dsn: dsn}, nil
	}

	scheme, _, _ := strings.Cut(u, ":")
	return dataSource{}, fmt.Errorf("%w: scheme %q", ErrUnsupportedURL, scheme)
}

func postgresDSN(rawURL, username, password string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse postgres url: %w", err)
	}

	if u.User == nil && username != "" {
		u.User = userinfo(username, password)
	}
	return u.String(), nil
}

func mysqlDSN(rawURL, username, password string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse mysql url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: mysql url without host", ErrUnsupportedURL)
	}

	dsn := fmt.Sprintf("tcp(%s)/%s", u.Host, strings.TrimPrefix(u.Path, "/"))
	if u.RawQuery != "" {
		dsn += "?" + u.RawQuery
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql params: %w", err)
	}

	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	} else {
		cfg.User = username
		cfg.Passwd = password
	}
	return cfg.FormatDSN(), nil
}

func userinfo(username, password string) *url.Userinfo {
	if password == "" {
		return url.User(username)
	}
	return url.UserPassword(username, password)
}
