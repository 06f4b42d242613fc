package main

import (
	"context"
	"os"

	"github.com/ManikGarg316/rest-catalog-server/internal/cli/commands"
)

func main() {
	if err := commands.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
