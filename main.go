package main

import "github.com/eleven91/webrtc/cmd"

func main() {
	cmd.Execute()
}
