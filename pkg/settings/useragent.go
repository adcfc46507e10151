package settings

import (
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
)

// Version is the duckgorm release reported in the user agent.
// Set at build time.
var Version = "0.1.0"

const gormModule = "gorm.io/gorm"

// defaultGormVersion is reported when the binary carries no module
// information for gorm.
const defaultGormVersion = "1.31.1"

// GormVersion returns the gorm version linked into the running binary.
var GormVersion = sync.OnceValue(func() string {
	info, _ := debug.ReadBuildInfo()
	return moduleVersion(info, gormModule, defaultGormVersion)
})

func moduleVersion(info *debug.BuildInfo, path, fallback string) string {
	if info == nil {
		return fallback
	}
	for _, dep := range info.Deps {
		if dep.Path != path {
			continue
		}
		if dep.Replace != nil && dep.Replace.Version != "" {
			dep = dep.Replace
		}
		if v := strings.TrimPrefix(dep.Version, "v"); v != "" && v != "(devel)" {
			return v
		}
	}
	return fallback
}

// UserAgentKey is the engine option carrying the client identification.
const UserAgentKey = "custom_user_agent"

// UserAgent returns the client identification sent to the engine. A custom
// agent supplied by the caller is appended after a space.
func UserAgent(custom string) string {
	ua := fmt.Sprintf("duckgorm/%s(gorm/%s)", Version, GormVersion())
	if custom != "" {
		ua += " " + custom
	}
	return ua
}

// ApplyUserAgent sets custom_user_agent in config, keeping a caller supplied
// agent as suffix.
func ApplyUserAgent(config map[string]any) {
	custom := ""
	if v, ok := config[UserAgentKey]; ok {
		custom = DSNValue(v)
	}
	config[UserAgentKey] = UserAgent(custom)
}
