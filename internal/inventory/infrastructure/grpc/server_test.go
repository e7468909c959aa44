package grpc

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/dmehra2102/Sales-Order-Management/internal/inventory/domain"
)

type stubStock map[string]int

func (s stubStock) GetStock(_ context.Context, productID string) (domain.StockLevel, error) {
	qty, ok := s[productID]
	if !ok {
		return domain.StockLevel{}, domain.ErrProductNotFound
	}
	return domain.StockLevel{ProductID: productID, Quantity: qty}, nil
}

func dialLedger(t *testing.T, stock StockReader) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	Register(gs, NewServer(slog.New(slog.NewTextHandler(io.Discard, nil)), stock))
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func TestGetStock_OverGRPC(t *testing.T) {
	client := dialLedger(t, stubStock{"p1": 42})

	qty, err := client.GetStock(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 42, qty)
}

func TestGetStock_StatusCodes(t *testing.T) {
	client := dialLedger(t, stubStock{})

	_, err := client.GetStock(context.Background(), "missing")
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.GetStock(context.Background(), "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
