// ABOUTME: Version information for voxroute binaries
// ABOUTME: Version is overridden at build time via -ldflags
package version

// Version is the release version, set with -ldflags "-X .../version.Version=..."
var Version = "0.1.0"

const (
	// Product is reported in the server hello and the mDNS record
	Product = "voxroute"

	// Manufacturer is reported alongside Product
	Manufacturer = "voxroute"
)

// String returns "product version"
func String() string {
	return Product + " " + Version
}
