package main

import (
	"context"
	_ "time/tzdata"

	"github.com/spyai-labs/etl-gcp-splash/cmd/splashetl/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
