package motherduck

import (
	"strings"

	"github.com/google/uuid"
)

// NewSessionHint returns a random session hint. MotherDuck routes every
// connection carrying the same hint to the same read-scaling replica.
func NewSessionHint() string {
	return uuid.NewString()
}

// WithSessionHint sets session_hint unless one is already configured and
// returns the hint in effect.
func WithSessionHint(config map[string]any, hint string) string {
	if v, ok := config[SessionHintKey]; ok {
		if s, isString := v.(string); isString && s != "" {
			return s
		}
	}
	config[SessionHintKey] = hint
	return hint
}

// IsReadScaling reports whether the connection may land on a read-scaling
// replica: read-only access, or a session hint pinning the replica.
func IsReadScaling(config map[string]any) bool {
	_, hinted := config[SessionHintKey]
	mode, _ := config[AccessModeKey].(string)
	return hinted || strings.EqualFold(mode, "read_only")
}
