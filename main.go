package main

import (
	"example.com/guardian/services/monitor/cmd"
)

func main() {
	cmd.Execute()
}
