package main

import (
	"github.com/kmorand/gatehouse/internal/cli"
)

func main() {
	cli.Execute()
}
