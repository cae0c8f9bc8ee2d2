// Package version exposes the build identity of the running binary: what
// was built, from which commit, and which process instance is answering.
// The identity feeds startup logs, the health endpoint, telemetry resource
// attributes, and the User-Agent the gateway presents to its upstream
// providers.
package version

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Set at build time:
//
//	go build -ldflags "\
//	  -X finadvisor/internal/version.Version=v1.2.3 \
//	  -X finadvisor/internal/version.GitCommit=$(git rev-parse --short HEAD) \
//	  -X finadvisor/internal/version.BuildDate=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Untouched binaries report "unknown" for all three.
var (
	Version   = "unknown"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info is the resolved identity of this process.
type Info struct {
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit"`
	BuildDate  string `json:"build_date"`
	GoVersion  string `json:"go_version"`
	InstanceID string `json:"instance_id"`
	Hostname   string `json:"hostname"`
}

var (
	once sync.Once
	info Info
)

// GetInfo resolves the process identity. The instance ID is minted on the
// first call and stable for the life of the process, so every log line and
// trace from one replica carries the same ID.
func GetInfo() Info {
	once.Do(func() {
		info = Info{
			Version:    Version,
			GitCommit:  GitCommit,
			BuildDate:  BuildDate,
			GoVersion:  runtime.Version(),
			InstanceID: uuid.New().String(),
			Hostname:   hostname(),
		}
	})
	return info
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}

// String formats the identity for the -version flag and startup logs.
func (i Info) String() string {
	return fmt.Sprintf("finadvisor version %s (commit: %s, built: %s)", i.Version, i.GitCommit, i.BuildDate)
}

// UserAgent is the identity sent to upstream providers on every outbound
// request, so their logs can attribute traffic to this service.
func UserAgent() string {
	v := strings.TrimSpace(Version)
	if v == "" {
		v = "unknown"
	}
	return "finadvisor/" + v
}
