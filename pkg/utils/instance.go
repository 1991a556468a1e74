package utils

import (
	"os"

	"github.com/denisbrodbeck/machineid"
)

// InstanceID returns a stable identifier for this host, derived from the
// machine id and hashed with the application name. The hostname is used
// when no machine id is available.
func InstanceID(app string) string {
	if id, err := machineid.ProtectedID(app); err == nil {
		return id
	}
	if hostname, err := os.Hostname(); err == nil {
		return hostname
	}
	return "unknown"
}
