package main

import "bill-advisor/internal/cli"

func main() {
	cli.Execute()
}
