// Package provisioning makes sure the tracker has a working wireless uplink
// before the control loop starts.
//
// Saved credentials are tried first. Without credentials the device opens an
// access point and serves a configuration portal; credentials that fail to
// connect are erased and the board restarts into the portal.
package provisioning
