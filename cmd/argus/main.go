package main

import "argus/internal/cli"

func main() {
	cli.Execute()
}
