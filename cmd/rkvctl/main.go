// Command rkvctl is a small command-line client for a rkv-served cluster,
// dispatching subcommands the way
// boomballa-df2redis/internal/cli.Execute switches on args[0].
package main

import (
	"os"

	"github.com/boomballa/rkv/internal/logger"
)

func main() {
	logger.Init(".", logger.INFO, "rkvctl")
	defer logger.Close()
	os.Exit(Execute(os.Args[1:]))
}
