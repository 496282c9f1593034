package main

import "github.com/KaramelBytes/trendloom/cmd"

func main() {
	cmd.Execute()
}
