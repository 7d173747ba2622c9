package main

import "github.com/hierarchy-analysis/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
