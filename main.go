package main

import "github.com/smclab/gosmc/cmd"

func main() {
	cmd.Execute()
}
