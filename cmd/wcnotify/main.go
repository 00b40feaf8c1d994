package main

import (
	"fmt"
	"os"

	"wcnotify/cmd/wcnotify/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stdout, "Error: %v\n", err)
		os.Exit(1)
	}
}
