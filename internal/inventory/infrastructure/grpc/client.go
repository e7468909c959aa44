package grpc

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client calls the stock ledger over an existing connection.
type Client struct {
	log *slog.Logger
	cc  grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{log: slog.Default(), cc: cc}
}

// Dial opens a plaintext connection to the ledger at addr. The caller closes
// the returned connection.
func Dial(log *slog.Logger, addr string) (*Client, *grpc.ClientConn, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, err
	}
	return &Client{log: log, cc: conn}, conn, nil
}

func (c *Client) GetStock(ctx context.Context, productID string) (int, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, GetStockMethod, wrapperspb.String(productID), out); err != nil {
		c.log.Debug("stock ledger call failed", "product_id", productID, "err", err)
		return 0, err
	}
	return int(out.GetValue()), nil
}
