package deps

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MrSnakeDoc/startpage/internal/editor"
	"github.com/MrSnakeDoc/startpage/internal/linkstore"
	"github.com/MrSnakeDoc/startpage/internal/logger"
	"github.com/MrSnakeDoc/startpage/internal/thumbnail"
)

// Pinger checks that the persistence backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	AllowedHosts []string // Host headers allowed to access the server
	AllowedCIDRS []string // IPs allowed to access the API and infra endpoints
	TrustProxy   bool     // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RateBurst    int      // write requests allowed in a burst per client
	RatePerMin   int      // sustained write requests per minute per client

	Store          *linkstore.Store
	Editor         *editor.Editor
	Thumbnails     *thumbnail.Loader
	MaxUploadBytes int64 // request body cap for uploads

	Backend string // persistence backend name, reported by /api/status
	Pinger  Pinger // nil when the backend has nothing to ping

	Gatherer        prometheus.Gatherer // served on /metrics, nil disables the route
	SnapshotTrigger chan struct{}       // manual snapshot trigger, nil when snapshots are disabled

	// WriteLimit throttles mutating routes; set by httpserver.New.
	WriteLimit func(http.Handler) http.Handler
}

// Now returns TimeNow() or time.Now().
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
