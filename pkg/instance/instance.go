package instance

import "os"

const fallbackID = "api-0"

// GetID identifies this process in logs. STOREFRONT_INSTANCE_ID wins, then the
// platform dyno name, then the hostname.
func GetID() string {
	for _, key := range []string{"STOREFRONT_INSTANCE_ID", "DYNO"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
