// snapctl reads the snapshot cache the way a trading process would:
// newest snapshot wins, and a cache miss falls through to the REST API.
//
// Usage:
//
//	snapctl --config configs/bridge.local.yaml tickers [SYMBOL]
//	snapctl --config configs/bridge.local.yaml order SYMBOL ORDER_ID
//	snapctl --config configs/bridge.local.yaml account
//	snapctl --config configs/bridge.local.yaml balance ASSET
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/hzhou/snapbridge/internal/accessor"
	"github.com/hzhou/snapbridge/internal/api"
	"github.com/hzhou/snapbridge/internal/config"
	"github.com/hzhou/snapbridge/internal/snapshot"
)

func main() {
	configPath := flag.String("config", "configs/bridge.local.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	store := snapshot.NewStore(cfg.Cache.Dir, logger)
	client := api.NewClient(
		cfg.API.RestURL,
		cfg.API.APIKey,
		cfg.API.SecretKey,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, time.Second),
		api.WithRecvWindow(cfg.API.RecvWindow.Milliseconds()),
	)
	acc := accessor.New(store, client, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	args := flag.Args()
	if len(args) == 0 {
		usage()
	}

	var result any
	switch args[0] {
	case "tickers":
		if len(args) > 1 {
			result = acc.GetSymbolTicker(ctx, args[1])
		} else {
			result = acc.GetTickers(ctx)
		}
	case "order":
		if len(args) != 3 {
			usage()
		}
		orderID, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			fmt.Fprintln(os.Stderr, "order id must be an integer:", args[2])
			os.Exit(1)
		}
		result = acc.GetOrder(ctx, args[1], orderID)
	case "account":
		result = acc.GetAccount(ctx)
	case "balance":
		if len(args) != 2 {
			usage()
		}
		result = acc.GetBalance(ctx, args[1])
	default:
		usage()
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintln(os.Stderr, "encode result:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: snapctl [--config PATH] COMMAND

commands:
  tickers [SYMBOL]      latest ticker table, or one symbol's ticker
  order SYMBOL ORDER_ID latest status of one order
  account               latest account snapshot
  balance ASSET         one asset's balance from the account snapshot`)
	os.Exit(2)
}
