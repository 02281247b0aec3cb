package main

import "github.com/vietddude/jobsync/internal/cli"

func main() {
	cli.Execute()
}
