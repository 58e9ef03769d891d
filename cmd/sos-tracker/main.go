package main

import "github.com/oshokin/sos-tracker/cmd/sos-tracker/cmd"

func main() {
	cmd.Execute()
}
