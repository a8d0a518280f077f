// Package main is the administrative CLI for the CRM backend.
package main

import (
	"os"
)

func main() {
	if err := NewRootCmd(openServices).Execute(); err != nil {
		os.Exit(1)
	}
}
