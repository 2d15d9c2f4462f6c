package database

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kovalev70/sandbox-connector/internal/core/domain"
	"github.com/kovalev70/sandbox-connector/internal/infra/connstring"
)

// npgsqlKeys maps the ADO.NET style keywords used by hosts to libpq names.
var npgsqlKeys = map[string]string{
	"server":   "host",
	"host":     "host",
	"port":     "port",
	"database": "dbname",
	"username": "user",
	"user id":  "user",
	"userid":   "user",
	"user":     "user",
	"password": "password",
	"sslmode":  "sslmode",
	"ssl mode": "sslmode",
	"timeout":  "connect_timeout",
}

// libpqKeys are keywords that mark a space separated libpq string.
var libpqKeys = map[string]struct{}{
	"host":                 {},
	"hostaddr":             {},
	"port":                 {},
	"dbname":               {},
	"user":                 {},
	"password":             {},
	"passfile":             {},
	"sslmode":              {},
	"connect_timeout":      {},
	"application_name":     {},
	"options":              {},
	"target_session_attrs": {},
}

var libpqPair = regexp.MustCompile(`\s([A-Za-z_]+)\s*=`)

// NormalizeDSN returns a DSN pgx can parse. URLs and libpq keyword strings are
// returned as is; "Server=...;Database=...;" strings are translated to libpq
// keywords. Unknown keywords are dropped.
func NormalizeDSN(dsn string) (string, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty database connection string", domain.ErrInvalidArgument)
	}
	if strings.HasPrefix(trimmed, "postgres://") || strings.HasPrefix(trimmed, "postgresql://") {
		return trimmed, nil
	}
	if !isNpgsqlStyle(trimmed) {
		return trimmed, nil
	}

	values, err := connstring.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse database connection string: %w", err)
	}

	params := make(map[string]string, len(values))
	for key, value := range values {
		name, ok := npgsqlKeys[key]
		if !ok || value == "" {
			continue
		}
		params[name] = value
	}
	if params["host"] == "" {
		return "", fmt.Errorf("%w: database connection string has no server", domain.ErrInvalidArgument)
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+quoteLibpqValue(params[name]))
	}
	return strings.Join(parts, " "), nil
}

// isNpgsqlStyle reports whether dsn starts with an ADO.NET keyword whose value
// does not run on into further libpq pairs. A ';' alone proves nothing since
// libpq values may contain one.
func isNpgsqlStyle(dsn string) bool {
	first, _, _ := strings.Cut(dsn, ";")
	key, value, ok := strings.Cut(first, "=")
	if !ok {
		return false
	}
	if _, known := npgsqlKeys[strings.ToLower(strings.TrimSpace(key))]; !known {
		return false
	}
	for _, match := range libpqPair.FindAllStringSubmatch(value, -1) {
		if _, libpq := libpqKeys[strings.ToLower(match[1])]; libpq {
			return false
		}
	}
	return true
}

func quoteLibpqValue(value string) string {
	if !strings.ContainsAny(value, ` '\`) {
		return value
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(value)
	return "'" + escaped + "'"
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
