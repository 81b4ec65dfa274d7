package instance

import (
	"os"

	"github.com/angelmondragon/wholesale-backend/pkg/env"
)

// GetID names this process in logs. WHOLESALE_INSTANCE_ID wins, then the
// host name, then "local".
func GetID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	return env.Get("WHOLESALE_INSTANCE_ID", host)
}
