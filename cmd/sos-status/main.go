package main

import "github.com/oshokin/sos-tracker/cmd/sos-status/cmd"

func main() {
	cmd.Execute()
}
