package main

import (
	"context"
	"fmt"
	"os"

	"github.com/M3PH1S69/warehouse-monitoring/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
