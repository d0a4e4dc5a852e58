package main

import "labelhub/internal/cli"

func main() {
	cli.Execute()
}
