// Command stockctl prints on-hand quantities from the stock ledger gRPC
// endpoint of order-service.
//
//	stockctl -addr localhost:50051 P-100 P-200
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	invgrpc "github.com/dmehra2102/Sales-Order-Management/internal/inventory/infrastructure/grpc"
	"github.com/dmehra2102/Sales-Order-Management/pkg/logging"
)

func main() {
	addr := flag.String("addr", "localhost:50051", "stock ledger gRPC address")
	timeout := flag.Duration("timeout", 5*time.Second, "per-call timeout")
	level := flag.String("log-level", "warn", "log level")
	flag.Parse()

	log := logging.New(*level)
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: stockctl [-addr host:port] PRODUCT_ID...")
		os.Exit(2)
	}

	client, conn, err := invgrpc.Dial(log, *addr)
	if err != nil {
		log.Error("dial failed", "addr", *addr, "err", err)
		os.Exit(1)
	}
	defer conn.Close()

	exit := 0
	for _, id := range flag.Args() {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		qty, err := client.GetStock(ctx, id)
		cancel()
		switch {
		case status.Code(err) == codes.NotFound:
			fmt.Printf("%s\tnot found\n", id)
			exit = 1
		case err != nil:
			log.Error("stock lookup failed", "product_id", id, "err", err)
			exit = 1
		default:
			fmt.Printf("%s\t%d\n", id, qty)
		}
	}
	os.Exit(exit)
}
