package main

import (
	"fmt"
	"os"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := buildApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "dpdesktop: %v\n", err)
		os.Exit(1)
	}
}
