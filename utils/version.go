package utils

// Build-time version information, set via -ldflags.
var (
	Tag        string
	GitHash    string
	BuildStamp string
)
