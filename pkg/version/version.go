package version

// Version is the current version of the callinsight analyzer
const Version = "0.3.1"

// UserAgent returns the User-Agent string for HTTP requests
func UserAgent() string {
	return "callinsight/" + Version
}
