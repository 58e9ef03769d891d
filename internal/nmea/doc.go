// Package nmea decodes position fixes from raw NMEA 0183 receiver output.
//
// Decode is stateless: it receives whatever bytes the receiver produced since
// the previous call, tolerates partial and garbled input, and returns the
// first GGA sentence carrying a usable GPS or DGPS fix.
package nmea
