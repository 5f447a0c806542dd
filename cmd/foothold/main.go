// main is the entry point of the foothold CLI.
package main

import (
	"github.com/huangsam/foothold/cmd"
	"github.com/huangsam/foothold/internal/contract"
	"github.com/huangsam/foothold/internal/iocache"
	"go.uber.org/zap"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)

	err := cmd.Execute()

	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	iocache.CloseStores()
	_ = zap.L().Sync()

	if err != nil {
		contract.LogFatal("Error", err)
	}
}
