// Command sajulotto predicts lotto numbers weighted by a saju birth
// profile and knowledge learned from ingested fortune-telling texts.
package main

import (
	"fmt"
	"os"

	"github.com/sajulotto/service/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
