package version

// version is set at build time via ldflags.
var version = "dev"

func GetVersion() string {
	return version
}
