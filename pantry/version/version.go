// pantry/version/version.go
package version

import (
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/palmtreesdigital/fundingconnect/httputil"
)

// Set at build time:
//
//	go build -ldflags "-X github.com/palmtreesdigital/fundingconnect/pantry/version.Version=1.4.0 \
//	                   -X github.com/palmtreesdigital/fundingconnect/pantry/version.Commit=abc123 \
//	                   -X github.com/palmtreesdigital/fundingconnect/pantry/version.BuildTime=2026-01-15T10:30:00Z"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info is the JSON body of /version.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// Get returns the current build info.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// UserAgent identifies outgoing mail, e.g. "fundingconnect/1.4.0".
func UserAgent(app string) string {
	return app + "/" + Version
}

// String is a one-line description for startup logs.
func String() string {
	if Version == "dev" {
		return "dev"
	}
	return Version + " (" + Commit + ", built " + BuildTime + ")"
}

// Mount attaches GET /version.
func Mount(r chi.Router) {
	info := Get()
	r.Method(http.MethodGet, "/version", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, info)
	}))
}
