// Package tracker implements the read-only gRPC status transport of the tracker.
//
// The service is described by hand with well-known protobuf types: GetStatus
// takes google.protobuf.Empty and answers with a google.protobuf.Struct built
// from a monitor snapshot. The package also carries the matching client.
package tracker
