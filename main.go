// Package main is the entry point for the tmsis dashboard
package main

import (
	"github.com/nastad/tmsis-dashboard/cmd"
)

func main() {
	cmd.Execute()
}
