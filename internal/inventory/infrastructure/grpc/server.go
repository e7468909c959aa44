package grpc

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dmehra2102/Sales-Order-Management/internal/inventory/domain"
)

const (
	StockLedgerService = "salesorders.inventory.v1.StockLedger"
	GetStockMethod     = "/" + StockLedgerService + "/GetStock"
)

// StockReader is the read side of the stock ledger.
type StockReader interface {
	GetStock(ctx context.Context, productID string) (domain.StockLevel, error)
}

// StockLedgerServer exposes GetStock(product id) -> quantity. Messages are
// protobuf well-known wrappers so no generated stubs are needed.
type StockLedgerServer interface {
	GetStock(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.Int64Value, error)
}

type Server struct {
	log   *slog.Logger
	stock StockReader
}

func NewServer(log *slog.Logger, stock StockReader) *Server {
	return &Server{log: log, stock: stock}
}

func (s *Server) GetStock(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.Int64Value, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "product id is required")
	}
	level, err := s.stock.GetStock(ctx, req.GetValue())
	if errors.Is(err, domain.ErrProductNotFound) {
		return nil, status.Errorf(codes.NotFound, "product %s not found", req.GetValue())
	}
	if err != nil {
		s.log.Error("stock lookup failed", "product_id", req.GetValue(), "err", err)
		return nil, status.Error(codes.Internal, "stock lookup failed")
	}
	return wrapperspb.Int64(int64(level.Quantity)), nil
}

func getStockHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StockLedgerServer).GetStock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetStockMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StockLedgerServer).GetStock(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

var stockLedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: StockLedgerService,
	HandlerType: (*StockLedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetStock", Handler: getStockHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "inventory/v1/stock_ledger.proto",
}

func Register(gs *grpc.Server, srv StockLedgerServer) {
	gs.RegisterService(&stockLedgerServiceDesc, srv)
}

func Run(addr string, srv *Server) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	gs := grpc.NewServer()
	Register(gs, srv)
	go func() {
		if err := gs.Serve(lis); err != nil {
			srv.log.Error("grpc serve stopped", "err", err)
		}
	}()
	return gs, nil
}
