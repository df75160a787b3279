package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/IsratTanny/DistribuTrack/internal/adapter/handler/pb"
	"github.com/IsratTanny/DistribuTrack/internal/core/domain"
	"github.com/IsratTanny/DistribuTrack/internal/core/service"
	"github.com/IsratTanny/DistribuTrack/internal/port"
)

// AuthorizationMetadataKey carries "Bearer <session token>", resolved the
// same way as the HTTP Authorization header.
const AuthorizationMetadataKey = "authorization"

type GRPCHandler struct {
	pb.UnimplementedOrderServiceServer
	orders   OrderPlacer
	sessions SessionResolver
	logger   *zap.Logger
}

func NewGRPCHandler(orders OrderPlacer, sessions SessionResolver, logger *zap.Logger) *GRPCHandler {
	return &GRPCHandler{orders: orders, sessions: sessions, logger: logger}
}

// NewGRPCServer returns an instrumented server with the order service registered.
func NewGRPCServer(h *GRPCHandler, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.StatsHandler(otelgrpc.NewServerHandler())}, opts...)
	server := grpc.NewServer(opts...)
	pb.RegisterOrderServiceServer(server, h)
	return server
}

func (h *GRPCHandler) PlaceOrder(ctx context.Context, req *pb.PlaceOrderRequest) (*pb.PlaceOrderResponse, error) {
	who, err := h.identityFromMetadata(ctx)
	if err != nil {
		return nil, err
	}
	shopkeeperID := who.UserID

	items := make([]domain.ItemOverride, 0, len(req.GetItems()))
	for _, item := range req.GetItems() {
		if item.GetProductId() <= 0 {
			return nil, status.Error(codes.InvalidArgument, "product_id must be positive")
		}
		items = append(items, domain.ItemOverride{ProductID: item.GetProductId(), Quantity: int(item.GetQuantity())})
	}

	placement, err := h.orders.PlaceOrder(ctx, domain.PlaceOrderRequest{
		ShopkeeperID:   shopkeeperID,
		Items:          items,
		IdempotencyKey: req.GetIdempotencyKey(),
	})
	if err != nil {
		if errorStatus(err) >= 500 {
			h.logger.Error("grpc place order failed", zap.Int64("shopkeeper_id", shopkeeperID), zap.Error(err))
			return nil, status.Error(codes.Internal, "server_error")
		}
		if errors.Is(err, service.ErrUnauthorized) {
			return nil, status.Error(codes.Unauthenticated, "unauthorized")
		}

		resp := &pb.PlaceOrderResponse{Success: false, Error: errorCode(err)}
		if placement != nil {
			resp.Skipped = toPBSkipped(placement.Skipped)
		}
		return resp, nil
	}

	resp := &pb.PlaceOrderResponse{
		Success: true,
		Skipped: toPBSkipped(placement.Skipped),
	}
	for _, o := range placement.Orders {
		resp.Orders = append(resp.Orders, &pb.PlacedOrder{
			OrderId:       o.OrderID,
			DistributorId: o.DistributorID,
			TotalAmount:   o.TotalAmount.StringFixed(2),
			ItemsCount:    int32(o.ItemsCount),
			CreatedAt:     o.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp, nil
}

// identityFromMetadata resolves the session token and requires a shopkeeper.
func (h *GRPCHandler) identityFromMetadata(ctx context.Context) (domain.Identity, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	values := md.Get(AuthorizationMetadataKey)
	if len(values) == 0 {
		return domain.Identity{}, status.Error(codes.Unauthenticated, "missing session token")
	}
	token, ok := strings.CutPrefix(values[0], "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return domain.Identity{}, status.Error(codes.Unauthenticated, "missing session token")
	}

	who, err := h.sessions.ResolveSession(ctx, strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, port.ErrSessionNotFound) {
			return domain.Identity{}, status.Error(codes.Unauthenticated, "unauthorized")
		}
		h.logger.Error("resolve session failed", zap.Error(err))
		return domain.Identity{}, status.Error(codes.Internal, "server_error")
	}
	if !who.IsShopkeeper() {
		return domain.Identity{}, status.Error(codes.Unauthenticated, "unauthorized")
	}
	return who, nil
}

func toPBSkipped(skipped []domain.SkipEntry) []*pb.SkippedItem {
	var out []*pb.SkippedItem
	for _, s := range toSkippedDTOs(skipped) {
		item := &pb.SkippedItem{ProductId: s.ProductID, Reason: s.Reason}
		if s.Requested != nil {
			item.Requested = int32(*s.Requested)
		}
		if s.Available != nil {
			item.Available = int32(*s.Available)
		}
		if s.Fulfilled != nil {
			item.Fulfilled = int32(*s.Fulfilled)
		}
		out = append(out, item)
	}
	return out
}
