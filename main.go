// file: main.go
// version: 1.1.0
// guid: 6f7a8b9c-0d1e-2f3a-4b5c-6d7e8f9a1c2d

package main

import (
	"fmt"
	"os"

	"github.com/jdfalk/audibleshelf/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
