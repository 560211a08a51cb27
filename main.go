package main

import "github.com/okqualiteeau/eauparquet/cmd"

func main() {
	cmd.Execute()
}
