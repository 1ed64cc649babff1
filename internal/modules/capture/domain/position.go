package domain

import (
	"fmt"
	"math"
	"strconv"
)

// Position is one location fix. Accuracy is the sensor radius in meters when known.
type Position struct {
	Lat      float64
	Lon      float64
	Accuracy *float64
}

// Fixed rounds both coordinates to 6 decimal places, the precision persisted with every capture.
func (p Position) Fixed() Position {
	return Position{Lat: Fix6(p.Lat), Lon: Fix6(p.Lon), Accuracy: p.Accuracy}
}

func Fix6(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	fixed, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 6, 64), 64)
	if err != nil {
		return 0
	}
	return fixed
}

// MapLink is the QR payload used when a photo only exists on the device.
func MapLink(lat, lon float64) string {
	return fmt.Sprintf("https://www.google.com/maps?q=%s,%s",
		strconv.FormatFloat(lat, 'f', 6, 64), strconv.FormatFloat(lon, 'f', 6, 64))
}

const (
	MinAccuracyThreshold     = 1
	MaxAccuracyThreshold     = 100
	DefaultAccuracyThreshold = 20
)

// ClampAccuracy bounds a user-entered accuracy threshold. The threshold is informational;
// it never gates the shutter.
func ClampAccuracy(meters int) int {
	if meters < MinAccuracyThreshold {
		return MinAccuracyThreshold
	}
	if meters > MaxAccuracyThreshold {
		return MaxAccuracyThreshold
	}
	return meters
}
