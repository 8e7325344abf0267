package main

import "github.com/MeKo-Tech/noiselab/internal/cmd"

func main() {
	cmd.Execute()
}
