package main

import "github.com/roamplan/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
