package main

import (
	"github.com/NVIDIA/nvml-tune/pkg/cli"
)

func main() {
	cli.Execute()
}
