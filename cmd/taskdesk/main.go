package main

import "github.com/deepnoodle-ai/taskdesk/cmd/taskdesk/cli"

func main() {
	cli.Execute()
}
