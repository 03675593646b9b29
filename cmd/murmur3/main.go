package main

import (
	"context"
	"os"

	"github.com/spf13/afero"

	"github.com/Qthai16/go-murmur3/utils"
)

func main() {
	ctx, cancel := utils.TerminateContext(context.Background())
	defer cancel()
	if err := newRootCmd(afero.NewOsFs()).ExecuteContext(ctx); err != nil {
		utils.LogErro("%v", err)
		os.Exit(1)
	}
}
