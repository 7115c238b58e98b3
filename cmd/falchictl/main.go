// Package main is the entry point for falchictl, the ops terminal tool
// for the slot service's admin API.
package main

import (
	"os"

	"github.com/jfp99/pizza-falchi-sub001/cmd/falchictl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
