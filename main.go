package main

import "go_commission/cli"

func main() {
	cli.Execute()
}
