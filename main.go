package main

import "github.com/qobs-build/meson2hermetic/cmd"

func main() {
	cmd.Execute()
}
