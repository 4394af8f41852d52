package main

import "github.com/mcoot/tablesync/internal/cli"

func main() {
	cli.Execute()
}
