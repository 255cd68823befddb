package main

import "github.com/voxroom/voxroom/cmd"

func main() {
	cmd.Execute()
}
