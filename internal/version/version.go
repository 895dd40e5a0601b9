package version

// These variables are set at build time using -ldflags
// Example: go build -ldflags "-X Girder/internal/version.Version=1.0.0"
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func String() string {
	return Version + " (" + GitCommit + ", built " + BuildTime + ")"
}
