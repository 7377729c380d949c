package main

import "eve-arbscan/internal/cli"

var version = "dev"

func main() {
	cli.Execute(version)
}
