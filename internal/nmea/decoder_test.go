package nmea

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/sos-tracker/internal/domain/telemetry"
)

const (
	munichGGA   = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"
	noFixGGA    = "$GPGGA,123520,4807.038,N,01131.000,W,0,00,,,M,,M,,*4A"
	sydneyGGA   = "$GNGGA,092725.00,3352.128,S,15112.558,E,2,08,1.01,499.6,M,48.0,M,,*53"
	munichRMC   = "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A"
	coordsDelta = 1e-9
)

// TestDecode_NoQualifyingSentence verifies buffers without a usable GGA yield no fix.
func TestDecode_NoQualifyingSentence(t *testing.T) {
	t.Parallel()

	buffers := map[string]string{
		"empty":          "",
		"rmc only":       munichRMC + "\r\n",
		"no fix quality": noFixGGA + "\r\n",
		"empty coords":   "$GPGGA,123519,,N,,E,1,08,0.9,545.4,M,46.9,M,,\r\n",
		"short sentence": "$GPGGA,123519,4807.038,N\r\n",
		"bad checksum":   "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*00\r\n",
		"unknown talker": "$XXGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,\r\n",
		"leading junk":   "garbage" + munichGGA + "\r\n",
		"binary noise":   "\x00\xff\xfe\x01\x02",
	}

	for name, buffer := range buffers {
		_, ok := Decode([]byte(buffer))
		require.False(t, ok, name)
	}
}

// TestDecode_GPSFix decodes the reference sentence among other traffic.
func TestDecode_GPSFix(t *testing.T) {
	t.Parallel()

	buffer := "4.4,230394,003.1,W*6A\r\n" + munichRMC + "\r\n" + munichGGA + "\r\n"

	fix, ok := Decode([]byte(buffer))
	require.True(t, ok)
	require.InDelta(t, 48+7.038/60, fix.Latitude, coordsDelta)
	require.InDelta(t, 11+31.0/60, fix.Longitude, coordsDelta)
}

// TestDecode_DGPSFixSouthern covers the multi-constellation talker and negative latitude.
func TestDecode_DGPSFixSouthern(t *testing.T) {
	t.Parallel()

	fix, ok := Decode([]byte(sydneyGGA + "\n"))
	require.True(t, ok)
	require.InDelta(t, -(33 + 52.128/60), fix.Latitude, coordsDelta)
	require.InDelta(t, 151+12.558/60, fix.Longitude, coordsDelta)
}

// TestDecode_FirstQualifyingLineWins keeps the earliest usable sentence of the buffer.
func TestDecode_FirstQualifyingLineWins(t *testing.T) {
	t.Parallel()

	buffer := noFixGGA + "\r\n" + munichGGA + "\r\n" + sydneyGGA + "\r\n"

	fix, ok := Decode([]byte(buffer))
	require.True(t, ok)
	require.Greater(t, fix.Latitude, 0.0)
}

// TestDecode_InvalidUTF8Dropped ensures invalid byte sequences do not break decoding.
func TestDecode_InvalidUTF8Dropped(t *testing.T) {
	t.Parallel()

	buffer := append([]byte{0xff, 0xfe, '\r', '\n'}, []byte(munichGGA+"\r\n")...)

	fix, ok := Decode(buffer)
	require.True(t, ok)
	require.InDelta(t, 48.1173, fix.Latitude, coordsDelta)
}

// TestDecode_UncheckedSentence accepts sentences without a checksum suffix.
func TestDecode_UncheckedSentence(t *testing.T) {
	t.Parallel()

	fix, ok := Decode([]byte("$GPGGA,123519,4807.038,N,01131.000,W,1,08,0.9,545.4,M,46.9,M,,"))
	require.True(t, ok)
	require.InDelta(t, -(11 + 31.0/60), fix.Longitude, coordsDelta)
}

// TestDecode_UnparsableFirstLine yields no fix even when a later line is fine.
func TestDecode_UnparsableFirstLine(t *testing.T) {
	t.Parallel()

	buffer := "$GPGGA,123519,48x7.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,\r\n" + munichGGA + "\r\n"

	_, ok := Decode([]byte(buffer))
	require.False(t, ok)
}

// TestConvertCoordinate checks hemisphere sign handling and malformed input.
func TestConvertCoordinate(t *testing.T) {
	t.Parallel()

	lat, err := ConvertCoordinate("4807.038", "N", LatitudeDegreeDigits)
	require.NoError(t, err)
	require.InDelta(t, 48.1173, lat, coordsDelta)

	lon, err := ConvertCoordinate("01131.000", "W", LongitudeDegreeDigits)
	require.NoError(t, err)
	require.InDelta(t, -(11 + 31.0/60), lon, coordsDelta)
	require.InDelta(t, -11.5167, lon, 1e-4)

	lat, err = ConvertCoordinate("4807.038", "S", LatitudeDegreeDigits)
	require.NoError(t, err)
	require.InDelta(t, -48.1173, lat, coordsDelta)

	lon, err = ConvertCoordinate("01131.000", "E", LongitudeDegreeDigits)
	require.NoError(t, err)
	require.InDelta(t, 11+31.0/60, lon, coordsDelta)

	_, err = ConvertCoordinate("48", "N", LatitudeDegreeDigits)
	require.ErrorIs(t, err, ErrMalformedCoordinate)

	_, err = ConvertCoordinate("4875.000", "N", LatitudeDegreeDigits)
	require.ErrorIs(t, err, ErrMalformedCoordinate)

	_, err = ConvertCoordinate("4807.038", "Q", LatitudeDegreeDigits)
	require.ErrorIs(t, err, ErrUnknownHemisphere)

	for _, value := range []string{"48NaN", "480x1p4", "48Inf", "4807.0.38", "48+7.038", "4807e1"} {
		_, err = ConvertCoordinate(value, "N", LatitudeDegreeDigits)
		require.ErrorIs(t, err, ErrMalformedCoordinate, value)
	}
}

// TestDecode_NonDecimalCoordinate yields no fix for fields strconv would still parse.
func TestDecode_NonDecimalCoordinate(t *testing.T) {
	t.Parallel()

	for _, latitude := range []string{"48NaN", "480x1p4"} {
		line := "$GPGGA,123519," + latitude + ",N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,"

		_, ok := Decode([]byte(line))
		require.False(t, ok, latitude)
	}
}

// TestDecode_OutOfRangeLatitude yields no fix for degrees beyond the pole.
func TestDecode_OutOfRangeLatitude(t *testing.T) {
	t.Parallel()

	_, ok := Decode([]byte("$GPGGA,123519,9907.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,"))
	require.False(t, ok)
}

// TestDecode_ReturnsFreshFix guards against cached results between calls.
func TestDecode_ReturnsFreshFix(t *testing.T) {
	t.Parallel()

	_, ok := Decode([]byte(munichGGA))
	require.True(t, ok)

	fix, ok := Decode(nil)
	require.False(t, ok)
	require.Equal(t, telemetry.Fix{}, fix)
}
