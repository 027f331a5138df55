package main

import (
	"classeviva-tools/cmd/classeviva/commands"
	"classeviva-tools/lib/util/serviceutil"
)

func main() {
	ctx, cancel := serviceutil.SignalContext()
	defer cancel()
	commands.ExecuteContext(ctx)
}
