// Command lagoinha resolves Brazilian postal codes by racing several lookup services.
package main

import (
	"os"

	"github.com/lagoinha-go/lagoinha/cmd/lagoinha/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
