package main

import "github.com/mcoot/firgame/internal/cli"

func main() {
	cli.Execute()
}
