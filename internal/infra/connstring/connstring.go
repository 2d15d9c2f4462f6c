// Package connstring parses the host's "key=value;key=value" connection strings.
package connstring

import (
	"fmt"
	"strings"

	"github.com/kovalev70/sandbox-connector/internal/core/domain"
)

// Keys recognized by the connector.
const (
	KeyProvider         = "Provider"
	KeyConnectionString = "ConnectionString"
	KeySchemaName       = "SchemaName"
)

// Values holds parsed pairs. Keys are compared case-insensitively.
type Values map[string]string

// Get returns the value stored under key.
func (v Values) Get(key string) (string, bool) {
	value, ok := v[normalizeKey(key)]
	return value, ok
}

// Parse splits s into key/value pairs. Values may be wrapped in single or
// double quotes to carry ';' and '='; a doubled quote inside a quoted value
// stands for one literal quote. Later duplicates override earlier ones.
func Parse(s string) (Values, error) {
	values := make(Values)

	rest := s
	for {
		rest = strings.TrimLeft(rest, " \t\r\n;")
		if rest == "" {
			return values, nil
		}

		eq := strings.IndexByte(rest, '=')
		if eq < 0 {
			return nil, fmt.Errorf("%w: connection string segment %q has no '='", domain.ErrInvalidArgument, rest)
		}
		key := normalizeKey(rest[:eq])
		if key == "" || strings.ContainsRune(key, ';') {
			return nil, fmt.Errorf("%w: connection string key %q is invalid", domain.ErrInvalidArgument, rest[:eq])
		}
		rest = strings.TrimLeft(rest[eq+1:], " \t")

		var (
			value string
			err   error
		)
		if rest != "" && (rest[0] == '\'' || rest[0] == '"') {
			value, rest, err = readQuoted(rest)
			if err != nil {
				return nil, fmt.Errorf("%w: value of %q: %v", domain.ErrInvalidArgument, key, err)
			}
		} else {
			end := strings.IndexByte(rest, ';')
			if end < 0 {
				end = len(rest)
			}
			value = strings.TrimSpace(rest[:end])
			rest = rest[end:]
		}

		values[key] = value
	}
}

func readQuoted(s string) (value string, rest string, err error) {
	quote := s[0]
	var b strings.Builder
	i := 1
	for {
		if i >= len(s) {
			return "", "", fmt.Errorf("unterminated %c quote", quote)
		}
		if s[i] == quote {
			if i+1 < len(s) && s[i+1] == quote {
				b.WriteByte(quote)
				i += 2
				continue
			}
			i++
			break
		}
		b.WriteByte(s[i])
		i++
	}

	tail := strings.TrimLeft(s[i:], " \t")
	if tail != "" && tail[0] != ';' {
		return "", "", fmt.Errorf("unexpected text %q after closing quote", tail)
	}
	return b.String(), tail, nil
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
