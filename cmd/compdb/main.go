package main

import "github.com/mvp-joe/compdb/internal/cli"

func main() {
	cli.Execute()
}
