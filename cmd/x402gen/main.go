// x402gen pays for AI media generation with x402 and waits for the result.
package main

import (
	"os"

	"github.com/vitwit/x402gen/cmd/x402gen/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
