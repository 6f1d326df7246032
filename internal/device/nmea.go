package device

import (
	"fmt"
	"strconv"
	"strings"
)

// parseNMEACoord converts an NMEA ddmm.mmmm/dddmm.mmmm coordinate plus
// hemisphere letter into signed decimal degrees.
func parseNMEACoord(value, dir string) (float64, error) {
	if len(value) < 4 {
		return 0, fmt.Errorf("invalid nmea coordinate %q", value)
	}
	var degPart, minPart string
	if dir == "N" || dir == "S" {
		degPart, minPart = value[:2], value[2:]
	} else {
		degPart, minPart = value[:3], value[3:]
	}
	deg, err := strconv.ParseFloat(degPart, 64)
	if err != nil {
		return 0, err
	}
	min, err := strconv.ParseFloat(minPart, 64)
	if err != nil {
		return 0, err
	}
	dec := deg + min/60.0
	if dir == "S" || dir == "W" {
		dec = -dec
	}
	return dec, nil
}

// gpggaFix is the subset of a $GPGGA/$GNGGA sentence the cane simulator
// needs to build a GpsFix.
type gpggaFix struct {
	latitude, longitude float64
	satellites          int
	hdop                float64
	ok                  bool
}

// parseGPGGA extracts position and quality fields from a GPGGA/GNGGA
// sentence. Malformed or non-GGA lines report ok=false.
func parseGPGGA(line string) gpggaFix {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$GPGGA") && !strings.HasPrefix(line, "$GNGGA") {
		return gpggaFix{}
	}
	parts := strings.Split(line, ",")
	if len(parts) < 9 || parts[2] == "" || parts[4] == "" {
		return gpggaFix{}
	}
	lat, err1 := parseNMEACoord(parts[2], parts[3])
	lon, err2 := parseNMEACoord(parts[4], parts[5])
	if err1 != nil || err2 != nil {
		return gpggaFix{}
	}
	sats, _ := strconv.Atoi(parts[7])
	hdop, _ := strconv.ParseFloat(parts[8], 64)
	return gpggaFix{latitude: lat, longitude: lon, satellites: sats, hdop: hdop, ok: true}
}
