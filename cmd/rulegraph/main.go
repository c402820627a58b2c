// Package main provides the rulegraph CLI for validating object graphs
// against rule manifests.
package main

import "os"

func main() {
	os.Exit(Execute())
}
