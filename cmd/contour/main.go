package main

import "Contour/internal/cli"

func main() {
	cli.Execute()
}
