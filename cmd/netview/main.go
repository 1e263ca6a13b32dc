// Command netview animates an evolving neural network in the terminal, over
// HTTP or as a headless SVG render.
package main

import "os"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
