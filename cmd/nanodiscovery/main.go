package main

import (
	"github.com/croningp/NanoDiscovery/pkg/cli/cmd"
)

func main() {
	cmd.Execute()
}
