package main

import "github.com/garageops/workshop-notify/cmd"

func main() {
	cmd.Execute()
}
