package main

import "github.com/FACorreiaa/skill-registry/cmd"

func main() {
	cmd.Execute()
}
