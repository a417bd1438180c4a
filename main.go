// Package main wires up the edgewarm CLI.
package main

import "github.com/mjfield/edgewarm/cmd"

func main() {
	cmd.Execute()
}
