package main

import "github.com/MrSnakeDoc/startpage/internal/cli"

func main() {
	cli.Execute()
}
