package main

import "github.com/KaramelBytes/callpulse/cmd"

func main() {
	cmd.Execute()
}
