package main

import "github.com/naka-gawa/roadmap-health/cmd"

func main() {
	cmd.Execute()
}
