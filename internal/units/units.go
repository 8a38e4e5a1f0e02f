// Package units provides shared constants and validation for acceleration units
package units

// Unit constants
const (
	G      = "g"
	MilliG = "mg"
	MS2    = "ms2"
)

// Standard gravity in metres per second squared, used for ms2 conversion.
const standardGravity = 9.80665

// ValidUnits contains all valid unit values
var ValidUnits = []string{G, MilliG, MS2}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "g, mg, ms2"
}

// ToG converts an acceleration value from the source units to g.
// The metric kernels assume accelerations in g (1.0 = standard gravity).
func ToG(value float64, sourceUnits string) float64 {
	switch sourceUnits {
	case G:
		return value
	case MilliG:
		return value / 1000
	case MS2:
		return value / standardGravity
	default:
		return value
	}
}
