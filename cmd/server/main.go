package main

import (
	"context"

	"github.com/dmitrijs2005/ordersync/internal/server/cli"
)

func main() {
	cli.Execute(context.Background())
}
