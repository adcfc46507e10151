// Package motherduck holds the MotherDuck specific connection logic:
// target detection, token defaults, option aliases and session hints for
// read-replica affinity.
package motherduck

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/leapstack-labs/duckgorm/pkg/settings"
)

// Option names.
const (
	TokenKey       = "motherduck_token"
	SessionHintKey = "session_hint"
	AccessModeKey  = "access_mode"
	TTLKey         = "dbinstance_inactivity_ttl"
	TTLAliasKey    = "motherduck_dbinstance_inactivity_ttl"
)

// ErrTokenType is returned when a configured token is not a string.
var ErrTokenType = errors.New("motherduck_token must be a string")

var prefixes = []string{"md:", "motherduck:"}

// HasPrefix reports whether database names a MotherDuck database.
func HasPrefix(database string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(database, p) {
			return true
		}
	}
	return false
}

// LooksLikeMotherDuck reports whether a connection targets MotherDuck: the
// database carries an md: or motherduck: prefix, or any MotherDuck option
// is present.
func LooksLikeMotherDuck(database string, config map[string]any) bool {
	if HasPrefix(database) {
		return true
	}
	for _, k := range settings.MotherDuckKeys {
		if _, ok := config[k]; ok {
			return true
		}
	}
	return false
}

// IsRemote reports whether a connection must be served by MotherDuck. It
// differs from LooksLikeMotherDuck in ignoring access_mode, which local
// engines accept too.
func IsRemote(database string, config map[string]any) bool {
	if HasPrefix(database) {
		return true
	}
	for _, k := range settings.MotherDuckKeys {
		if k == AccessModeKey {
			continue
		}
		if _, ok := config[k]; ok {
			return true
		}
	}
	return false
}

// envTokens mirrors the two spellings MotherDuck tooling reads.
type envTokens struct {
	Lower string `env:"motherduck_token"`
	Upper string `env:"MOTHERDUCK_TOKEN"`
}

func (t envTokens) token() string {
	if t.Lower != "" {
		return t.Lower
	}
	return t.Upper
}

// TokenFromEnv reads motherduck_token, then MOTHERDUCK_TOKEN. A nil environ
// reads the process environment.
func TokenFromEnv(environ map[string]string) (string, error) {
	var t envTokens
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&t, opts); err != nil {
		return "", fmt.Errorf("failed to read token from environment: %w", err)
	}
	return t.token(), nil
}

// ApplyDefaults fills motherduck_token from the environment when the
// connection looks like MotherDuck and no token was configured. It rejects
// tokens that are not strings.
func ApplyDefaults(config map[string]any, database string, environ map[string]string) error {
	if _, ok := config[TokenKey]; !ok {
		token, err := TokenFromEnv(environ)
		if err != nil {
			return err
		}
		if token != "" && LooksLikeMotherDuck(database, config) {
			config[TokenKey] = token
		}
	}

	if v, ok := config[TokenKey]; ok {
		if _, isString := v.(string); !isString {
			return fmt.Errorf("%w, got %T", ErrTokenType, v)
		}
	}
	return nil
}

// NormalizeConfig copies dbinstance_inactivity_ttl to its prefixed alias
// unless the alias is already set.
func NormalizeConfig(config map[string]any) {
	v, ok := config[TTLKey]
	if !ok {
		return
	}
	if _, set := config[TTLAliasKey]; !set {
		config[TTLAliasKey] = v
	}
}
