// Package config defines the tracker settings file and provides helpers to
// load, validate (filling defaults) and save it in YAML format.
//
// The file names the collection endpoint, the wireless interface whose
// hardware address identifies the device, the GPS receiver, the GPIO lines of
// the two buttons and the indicator, loop timing, delivery policy, the optional
// local status listener and the provisioning portal.
package config
