package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	rkv "github.com/boomballa/rkv"
	"github.com/boomballa/rkv/internal/logger"
	"github.com/boomballa/rkv/internal/rkvconfig"
)

// Execute dispatches rkvctl subcommands.
func Execute(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 1
	}

	switch args[0] {
	case "get":
		return runGet(args[1:])
	case "set":
		return runSet(args[1:])
	case "del":
		return runDel(args[1:])
	case "ping":
		return runPing(args[1:])
	case "cluster-slots":
		return runClusterSlots(args[1:])
	case "do":
		return runDo(args[1:])
	case "debug-serve":
		return runDebugServe(args[1:])
	case "help", "-h", "--help":
		printUsage()
		return 0
	case "version", "--version", "-v":
		fmt.Println("rkvctl 0.1.0-dev")
		return 0
	default:
		logger.Error("unknown subcommand: %s", args[0])
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Println(`rkvctl <subcommand> [flags]

Subcommands:
  get --seeds=host:port[,host:port...] <key>
  set --seeds=host:port[,host:port...] <key> <value>
  del --seeds=host:port[,host:port...] <key> [key...]
  ping --seeds=host:port[,host:port...]
  cluster-slots --seeds=host:port[,host:port...]
  do --seeds=host:port[,host:port...] <command> [arg...]
  debug-serve --seeds=host:port[,host:port...] [--addr=:6380]
  help
  version`)
}

func seedFlag(fs *flag.FlagSet) *string {
	return fs.String("seeds", "", "comma-separated seed addresses, host:port")
}

func dial(ctx context.Context, seeds string) (*rkv.Client, error) {
	opts := rkvconfig.DefaultOptions()
	opts.Seeds = strings.Split(seeds, ",")
	return rkv.Dial(ctx, opts)
}

func runGet(args []string) int {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	seeds := seedFlag(fs)
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		printUsage()
		return 1
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := dial(ctx, *seeds)
	if err != nil {
		logger.Error("dial: %v", err)
		return 1
	}
	defer c.Close()
	v, err := c.Get(ctx, fs.Arg(0))
	if err != nil {
		logger.Error("get: %v", err)
		return 1
	}
	if v == nil {
		fmt.Println("(nil)")
		return 0
	}
	fmt.Println(string(v))
	return 0
}

func runSet(args []string) int {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	seeds := seedFlag(fs)
	if err := fs.Parse(args); err != nil || fs.NArg() != 2 {
		printUsage()
		return 1
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := dial(ctx, *seeds)
	if err != nil {
		logger.Error("dial: %v", err)
		return 1
	}
	defer c.Close()
	if err := c.Set(ctx, fs.Arg(0), []byte(fs.Arg(1))); err != nil {
		logger.Error("set: %v", err)
		return 1
	}
	fmt.Println("OK")
	return 0
}

func runDel(args []string) int {
	fs := flag.NewFlagSet("del", flag.ContinueOnError)
	seeds := seedFlag(fs)
	if err := fs.Parse(args); err != nil || fs.NArg() < 1 {
		printUsage()
		return 1
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := dial(ctx, *seeds)
	if err != nil {
		logger.Error("dial: %v", err)
		return 1
	}
	defer c.Close()
	n, err := c.Del(ctx, fs.Args()...)
	if err != nil {
		logger.Error("del: %v", err)
		return 1
	}
	fmt.Println(n)
	return 0
}

func runPing(args []string) int {
	fs := flag.NewFlagSet("ping", flag.ContinueOnError)
	seeds := seedFlag(fs)
	if err := fs.Parse(args); err != nil {
		printUsage()
		return 1
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := dial(ctx, *seeds)
	if err != nil {
		logger.Error("dial: %v", err)
		return 1
	}
	defer c.Close()
	reply, err := c.Ping(ctx)
	if err != nil {
		logger.Error("ping: %v", err)
		return 1
	}
	fmt.Println(reply)
	return 0
}

func runClusterSlots(args []string) int {
	fs := flag.NewFlagSet("cluster-slots", flag.ContinueOnError)
	seeds := seedFlag(fs)
	if err := fs.Parse(args); err != nil {
		printUsage()
		return 1
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := dial(ctx, *seeds)
	if err != nil {
		logger.Error("dial: %v", err)
		return 1
	}
	defer c.Close()
	ranges, err := c.ClusterSlots(ctx)
	if err != nil {
		logger.Error("cluster-slots: %v", err)
		return 1
	}
	for _, r := range ranges {
		fmt.Printf("[%d-%d]", r.Start, r.End)
		for _, n := range r.Nodes {
			fmt.Printf(" %s:%s", n.Host, strconv.FormatInt(n.Port, 10))
		}
		fmt.Println()
	}
	return 0
}

func runDo(args []string) int {
	fs := flag.NewFlagSet("do", flag.ContinueOnError)
	seeds := seedFlag(fs)
	if err := fs.Parse(args); err != nil || fs.NArg() < 1 {
		printUsage()
		return 1
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := dial(ctx, *seeds)
	if err != nil {
		logger.Error("dial: %v", err)
		return 1
	}
	defer c.Close()
	v, err := c.Raw(ctx, fs.Args()...)
	if err != nil {
		logger.Error("do: %v", err)
		return 1
	}
	fmt.Println(v.String())
	return 0
}

func runDebugServe(args []string) int {
	fs := flag.NewFlagSet("debug-serve", flag.ContinueOnError)
	seeds := seedFlag(fs)
	addr := fs.String("addr", ":6380", "address to serve /slots and /nodes on")
	if err := fs.Parse(args); err != nil {
		printUsage()
		return 1
	}
	dialCtx, cancelDial := context.WithTimeout(context.Background(), 5*time.Second)
	c, err := dial(dialCtx, *seeds)
	cancelDial()
	if err != nil {
		logger.Error("dial: %v", err)
		return 1
	}
	defer c.Close()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Console("debug server listening on %s", *addr)
	if err := c.DebugServe(runCtx, *addr); err != nil {
		logger.Error("debug-serve: %v", err)
		return 1
	}
	return 0
}
