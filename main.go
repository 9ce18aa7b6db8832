package main

import "github.com/jjenkins/billtracker/cmd"

func main() {
	cmd.Execute()
}
