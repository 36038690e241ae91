// Command fsintegrity is the CLI front end for the integrity checker
// core (spec §1 explicitly places the CLI out of the core's scope; this
// package is the thin collaborator that consumes it).
package main

import "os"

func main() {
	os.Exit(Execute())
}
