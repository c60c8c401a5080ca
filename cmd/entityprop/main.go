// Package main provides the entityprop CLI.
package main

import "github.com/mesh-intelligence/entityprop/internal/cli"

func main() {
	cli.Execute()
}
