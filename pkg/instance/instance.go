package instance

import (
	"os"
	"strings"

	"github.com/angelmondragon/seedling-limiter/pkg/config"
)

// GetID returns the identifier of this API instance: the configured instance
// id, then the platform dyno name, then the hostname.
func GetID() string {
	for _, key := range []string{config.EnvInstanceID, "DYNO"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "api-0"
}
