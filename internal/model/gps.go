package model

// FixKind is the GPS receiver's current fix quality.
type FixKind string

const (
	FixNone FixKind = "none"
	Fix2D   FixKind = "2d"
	Fix3D   FixKind = "3d"
	FixDGPS FixKind = "dgps"
)

// GpsFix is one GPS reading. All fields except FixType are nullable because
// the receiver may report a partial fix.
type GpsFix struct {
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	Altitude        *float64 `json:"altitude"`
	Speed           *float64 `json:"speed"`
	Heading         *float64 `json:"heading"`
	SatellitesCount *int     `json:"satellitesCount"`
	HDOP            *float64 `json:"hdop"`
	GpsTimestamp    *int64   `json:"gpsTimestamp"`
	FixType         FixKind  `json:"fixType"`
}

// Valid checks the physical ranges of any present fields.
func (g GpsFix) Valid() bool {
	if g.Latitude != nil && (*g.Latitude < -90 || *g.Latitude > 90) {
		return false
	}
	if g.Longitude != nil && (*g.Longitude < -180 || *g.Longitude > 180) {
		return false
	}
	if g.Altitude != nil && *g.Altitude > 9000 {
		return false
	}
	if g.Speed != nil && (*g.Speed < 0 || *g.Speed > 300) {
		return false
	}
	if g.Heading != nil && (*g.Heading < 0 || *g.Heading >= 360) {
		return false
	}
	if g.SatellitesCount != nil && *g.SatellitesCount < 0 {
		return false
	}
	if g.HDOP != nil && *g.HDOP < 0 {
		return false
	}
	switch g.FixType {
	case FixNone, Fix2D, Fix3D, FixDGPS, "":
	default:
		return false
	}
	return true
}

// HasFix reports whether the fix carries a usable position: a non-none fix
// kind plus both latitude and longitude present.
func (g GpsFix) HasFix() bool {
	return g.FixType != FixNone && g.FixType != "" && g.Latitude != nil && g.Longitude != nil
}

// GoodQuality reports a fix good enough to trust for navigation: HasFix,
// at least 6 satellites, and HDOP under 5.
func (g GpsFix) GoodQuality() bool {
	if !g.HasFix() {
		return false
	}
	if g.SatellitesCount == nil || *g.SatellitesCount < 6 {
		return false
	}
	if g.HDOP == nil || *g.HDOP >= 5 {
		return false
	}
	return true
}
