// Command simplebus runs the bridge model from the command line.
package main

import "github.com/sarchlab/simplebus/cmd/simplebus/cmd"

func main() {
	cmd.Execute()
}
