package main

import (
	"context"

	"assettracker/cmd"
)

func main() {
	cmd.Execute(context.Background())
}
