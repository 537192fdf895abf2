package main

import (
	"fmt"
	"os"
	"strings"
)

func main() {
	if err := execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "kodicast: %s\n", strings.TrimSpace(err.Error()))
		os.Exit(1)
	}
}
