package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Fix is a decoded satellite position in signed decimal degrees.
type Fix struct {
	// Latitude is negative south of the equator.
	Latitude float64
	// Longitude is negative west of Greenwich.
	Longitude float64
}

var (
	// ErrLatitudeRange is returned for latitudes outside [-90, 90].
	ErrLatitudeRange = errors.New("latitude out of range")
	// ErrLongitudeRange is returned for longitudes outside [-180, 180].
	ErrLongitudeRange = errors.New("longitude out of range")
)

// Valid returns an error when the coordinates cannot be a position on Earth,
// including NaN and infinities.
func (f Fix) Valid() error {
	if math.IsNaN(f.Latitude) || f.Latitude < -90 || f.Latitude > 90 {
		return fmt.Errorf("%w: %v", ErrLatitudeRange, f.Latitude)
	}

	if math.IsNaN(f.Longitude) || f.Longitude < -180 || f.Longitude > 180 {
		return fmt.Errorf("%w: %v", ErrLongitudeRange, f.Longitude)
	}

	return nil
}

// Report is a snapshot of position and alert state taken at send time.
// Fields are unexported so a report cannot change after construction.
type Report struct {
	fix      Fix
	deviceID string
	alert    bool
}

// NewReport builds a report for one delivery.
func NewReport(fix Fix, deviceID string, alert bool) Report {
	return Report{
		fix:      fix,
		deviceID: deviceID,
		alert:    alert,
	}
}

// Fix returns the reported position.
func (r Report) Fix() Fix {
	return r.fix
}

// DeviceID returns the hardware address identifying the tracker.
func (r Report) DeviceID() string {
	return r.deviceID
}

// Alert reports whether the emergency alert was latched.
func (r Report) Alert() bool {
	return r.alert
}

// Payload is the JSON body accepted by the collection endpoint.
type Payload struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	MACAddress string  `json:"mac_address"`
	SOS        bool    `json:"sos"`
}

// Payload converts the report to its wire form.
func (r Report) Payload() Payload {
	return Payload{
		Latitude:   r.fix.Latitude,
		Longitude:  r.fix.Longitude,
		MACAddress: r.deviceID,
		SOS:        r.alert,
	}
}

// MarshalJSON encodes the report as the endpoint payload.
func (r Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Payload())
}
