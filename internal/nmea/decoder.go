package nmea

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/oshokin/sos-tracker/internal/domain/telemetry"
)

const (
	// LatitudeDegreeDigits is the width of the degrees part in ddmm.mmmm.
	LatitudeDegreeDigits = 2
	// LongitudeDegreeDigits is the width of the degrees part in dddmm.mmmm.
	LongitudeDegreeDigits = 3

	minutesPerDegree = 60

	// GGA field positions after splitting on commas.
	ggaLatitude            = 2
	ggaLatitudeHemisphere  = 3
	ggaLongitude           = 4
	ggaLongitudeHemisphere = 5
	ggaFixQuality          = 6
	ggaMinFields           = 10
)

// Fix quality codes accepted as usable.
const (
	fixQualityGPS  = "1"
	fixQualityDGPS = "2"
)

var (
	// ErrMalformedCoordinate is returned when a ddmm.mmmm field cannot be parsed.
	ErrMalformedCoordinate = errors.New("malformed coordinate")
	// ErrUnknownHemisphere is returned for hemisphere letters other than N, S, E, W.
	ErrUnknownHemisphere = errors.New("unknown hemisphere")

	errChecksumMismatch = errors.New("checksum mismatch")
)

// recognizedSentences lists GGA identifiers of the talkers a single-band
// receiver emits: GPS only, multi-constellation and GLONASS.
//
//nolint:gochecknoglobals // Read-only lookup table.
var recognizedSentences = map[string]struct{}{
	"$GPGGA": {},
	"$GNGGA": {},
	"$GLGGA": {},
}

// Decode returns the position of the first qualifying GGA sentence in raw.
// Invalid UTF-8 is dropped; lines with a wrong checksum, no fix or empty
// coordinates are skipped. If the first qualifying sentence has unparsable
// coordinates the buffer yields no fix.
func Decode(raw []byte) (telemetry.Fix, bool) {
	text := strings.ToValidUTF8(string(raw), "")

	for line := range strings.Lines(text) {
		fields, ok := qualifyingFields(line)
		if !ok {
			continue
		}

		fix, err := fixFromFields(fields)
		if err != nil {
			return telemetry.Fix{}, false
		}

		return fix, true
	}

	return telemetry.Fix{}, false
}

// ConvertCoordinate converts a degrees-minutes field to signed decimal degrees.
// degreeDigits is LatitudeDegreeDigits or LongitudeDegreeDigits.
func ConvertCoordinate(value, hemisphere string, degreeDigits int) (float64, error) {
	value = strings.TrimSpace(value)
	if len(value) <= degreeDigits || !isDecimal(value) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedCoordinate, value)
	}

	degrees, err := strconv.ParseUint(value[:degreeDigits], 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: degrees of %q", ErrMalformedCoordinate, value)
	}

	minutes, err := strconv.ParseFloat(value[degreeDigits:], 64)
	if err != nil || minutes < 0 || minutes >= minutesPerDegree {
		return 0, fmt.Errorf("%w: minutes of %q", ErrMalformedCoordinate, value)
	}

	decimal := float64(degrees) + minutes/minutesPerDegree

	switch strings.ToUpper(strings.TrimSpace(hemisphere)) {
	case "N", "E":
		return decimal, nil
	case "S", "W":
		return -decimal, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownHemisphere, hemisphere)
	}
}

// isDecimal reports whether value holds only ASCII digits and at most one dot.
func isDecimal(value string) bool {
	dots := 0

	for i := range len(value) {
		switch c := value[i]; {
		case c == '.':
			dots++
			if dots > 1 {
				return false
			}
		case c < '0' || c > '9':
			return false
		}
	}

	return true
}

// qualifyingFields returns the comma-split fields of line when it is a
// recognized GGA sentence with both coordinates and a usable fix quality.
func qualifyingFields(line string) ([]string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return nil, false
	}

	payload, err := stripChecksum(line)
	if err != nil {
		return nil, false
	}

	fields := strings.Split(payload, ",")
	if len(fields) < ggaMinFields {
		return nil, false
	}

	if _, ok := recognizedSentences[fields[0]]; !ok {
		return nil, false
	}

	if fields[ggaLatitude] == "" || fields[ggaLongitude] == "" {
		return nil, false
	}

	switch strings.TrimSpace(fields[ggaFixQuality]) {
	case fixQualityGPS, fixQualityDGPS:
		return fields, true
	default:
		return nil, false
	}
}

// stripChecksum removes a trailing *hh and verifies it. Sentences without a
// checksum are passed through unchanged.
func stripChecksum(line string) (string, error) {
	star := strings.LastIndexByte(line, '*')
	if star == -1 {
		return line, nil
	}

	payload := line[:star]

	want, err := hex.DecodeString(strings.TrimSpace(line[star+1:]))
	if err != nil || len(want) != 1 {
		return "", errChecksumMismatch
	}

	var got byte
	for i := 1; i < len(payload); i++ {
		got ^= payload[i]
	}

	if got != want[0] {
		return "", errChecksumMismatch
	}

	return payload, nil
}

func fixFromFields(fields []string) (telemetry.Fix, error) {
	latitude, err := ConvertCoordinate(fields[ggaLatitude], fields[ggaLatitudeHemisphere], LatitudeDegreeDigits)
	if err != nil {
		return telemetry.Fix{}, fmt.Errorf("latitude: %w", err)
	}

	longitude, err := ConvertCoordinate(fields[ggaLongitude], fields[ggaLongitudeHemisphere], LongitudeDegreeDigits)
	if err != nil {
		return telemetry.Fix{}, fmt.Errorf("longitude: %w", err)
	}

	fix := telemetry.Fix{
		Latitude:  latitude,
		Longitude: longitude,
	}

	if err := fix.Valid(); err != nil {
		return telemetry.Fix{}, err
	}

	return fix, nil
}
