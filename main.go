package main

import "github.com/jsphweid/harptab/cmd"

func main() {
	cmd.Execute()
}
