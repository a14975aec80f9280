package main

import "github.com/MeKo-Tech/camlock/cmd/camlock/cmd"

func main() {
	cmd.Execute()
}
