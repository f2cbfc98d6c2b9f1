// ABOUTME: Version information for metrodrone binaries
// ABOUTME: Reported in the control protocol hello and by -version flags
package version

const (
	// Version is the software version
	Version = "0.3.0"

	// Product is the product name
	Product = "Metrodrone"

	// Manufacturer identifies who built this software
	Manufacturer = "Metrodrone Project"
)
