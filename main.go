package main

import (
	"fmt"

	"github.com/edgelink-io/edgelink/cli"
)

func main() {
	if err := cli.Start(); err != nil {
		fmt.Println(err)
	}
}
