package main

import (
	"fmt"
	"os"

	"github.com/km-arc/go-beans/framework/console"
)

func main() {
	if err := console.New(nil).Exec(); err != nil {
		fmt.Fprintln(os.Stderr, "beans:", err)
		os.Exit(1)
	}
}
