package api

import (
	"context"
	"errors"

	"cart-pricing-service/internal/domain"
	"cart-pricing-service/internal/service"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CartServiceName is the fully qualified gRPC service name.
const CartServiceName = "cart.v1.CartService"

// CartRequest addresses a whole cart.
type CartRequest struct {
	CartID string `json:"cart_id"`
}

// ItemRequest addresses one line of a cart. Quantity is only read by AddItem
// and SetQuantity; zero, negative or fractional values count as 1.
type ItemRequest struct {
	CartID    string  `json:"cart_id"`
	ProductID string  `json:"product_id"`
	Quantity  float64 `json:"quantity,omitempty"`
}

// CartResponse carries the cart state after the call.
type CartResponse struct {
	Cart domain.CartSnapshot `json:"cart"`
}

// CartServiceServer is the server API for the cart service.
type CartServiceServer interface {
	GetCart(context.Context, *CartRequest) (*CartResponse, error)
	AddItem(context.Context, *ItemRequest) (*CartResponse, error)
	RemoveItem(context.Context, *ItemRequest) (*CartResponse, error)
	SetQuantity(context.Context, *ItemRequest) (*CartResponse, error)
	IncrementItem(context.Context, *ItemRequest) (*CartResponse, error)
	DecrementItem(context.Context, *ItemRequest) (*CartResponse, error)
	ClearCart(context.Context, *CartRequest) (*CartResponse, error)
}

// GRPCHandler implements CartServiceServer on top of a CartManager.
type GRPCHandler struct {
	carts  CartManager
	logger *zap.Logger
}

// NewGRPCHandler creates a new GRPCHandler.
func NewGRPCHandler(carts CartManager, logger *zap.Logger) *GRPCHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCHandler{carts: carts, logger: logger}
}

// --- Helper: Error Mapping ---
func (s *GRPCHandler) mapServiceErrorToGrpcStatus(err error, method, cartID string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, service.ErrInvalidCartID):
		return status.Errorf(codes.InvalidArgument, "invalid cart id %q", cartID)
	case errors.Is(err, service.ErrProductNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		s.logger.Error("cart rpc failed", zap.String("method", method), zap.String("cart_id", cartID), zap.Error(err))
		return status.Errorf(codes.Internal, "failed to process %s for cart %q", method, cartID)
	}
}

func (s *GRPCHandler) respond(snap domain.CartSnapshot, err error, method, cartID string) (*CartResponse, error) {
	if err != nil {
		return nil, s.mapServiceErrorToGrpcStatus(err, method, cartID)
	}
	s.logger.Debug("cart rpc served", zap.String("method", method), zap.String("cart_id", cartID), zap.Int("item_count", snap.ItemCount))
	return &CartResponse{Cart: snap}, nil
}

func requireProductID(req *ItemRequest) error {
	if req.ProductID == "" {
		return status.Error(codes.InvalidArgument, "product_id is required")
	}
	return nil
}

// --- Cart gRPC Methods Implementation ---

func (s *GRPCHandler) GetCart(ctx context.Context, req *CartRequest) (*CartResponse, error) {
	snap, err := s.carts.Snapshot(ctx, req.CartID)
	return s.respond(snap, err, "GetCart", req.CartID)
}

func (s *GRPCHandler) AddItem(ctx context.Context, req *ItemRequest) (*CartResponse, error) {
	if err := requireProductID(req); err != nil {
		return nil, err
	}
	snap, err := s.carts.AddItem(ctx, req.CartID, req.ProductID, domain.CoerceQuantity(req.Quantity))
	return s.respond(snap, err, "AddItem", req.CartID)
}

func (s *GRPCHandler) RemoveItem(ctx context.Context, req *ItemRequest) (*CartResponse, error) {
	if err := requireProductID(req); err != nil {
		return nil, err
	}
	snap, err := s.carts.RemoveItem(ctx, req.CartID, req.ProductID)
	return s.respond(snap, err, "RemoveItem", req.CartID)
}

func (s *GRPCHandler) SetQuantity(ctx context.Context, req *ItemRequest) (*CartResponse, error) {
	if err := requireProductID(req); err != nil {
		return nil, err
	}
	snap, err := s.carts.SetQuantity(ctx, req.CartID, req.ProductID, domain.CoerceQuantity(req.Quantity))
	return s.respond(snap, err, "SetQuantity", req.CartID)
}

func (s *GRPCHandler) IncrementItem(ctx context.Context, req *ItemRequest) (*CartResponse, error) {
	if err := requireProductID(req); err != nil {
		return nil, err
	}
	snap, err := s.carts.IncrementItem(ctx, req.CartID, req.ProductID)
	return s.respond(snap, err, "IncrementItem", req.CartID)
}

func (s *GRPCHandler) DecrementItem(ctx context.Context, req *ItemRequest) (*CartResponse, error) {
	if err := requireProductID(req); err != nil {
		return nil, err
	}
	snap, err := s.carts.DecrementItem(ctx, req.CartID, req.ProductID)
	return s.respond(snap, err, "DecrementItem", req.CartID)
}

func (s *GRPCHandler) ClearCart(ctx context.Context, req *CartRequest) (*CartResponse, error) {
	snap, err := s.carts.Clear(ctx, req.CartID)
	return s.respond(snap, err, "ClearCart", req.CartID)
}

// --- Service Descriptor ---

type unaryMethodHandler = func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error)

func unaryHandler[Req any](method string, call func(CartServiceServer, context.Context, *Req) (*CartResponse, error)) unaryMethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CartServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + CartServiceName + "/" + method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CartServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// CartServiceDesc describes the cart service for grpc.Server.RegisterService.
// Messages are JSON, not protobuf, so there is no descriptor file behind it:
// reflection lists the service name but cannot describe its methods.
var CartServiceDesc = grpc.ServiceDesc{
	ServiceName: CartServiceName,
	HandlerType: (*CartServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetCart", Handler: unaryHandler("GetCart", CartServiceServer.GetCart)},
		{MethodName: "AddItem", Handler: unaryHandler("AddItem", CartServiceServer.AddItem)},
		{MethodName: "RemoveItem", Handler: unaryHandler("RemoveItem", CartServiceServer.RemoveItem)},
		{MethodName: "SetQuantity", Handler: unaryHandler("SetQuantity", CartServiceServer.SetQuantity)},
		{MethodName: "IncrementItem", Handler: unaryHandler("IncrementItem", CartServiceServer.IncrementItem)},
		{MethodName: "DecrementItem", Handler: unaryHandler("DecrementItem", CartServiceServer.DecrementItem)},
		{MethodName: "ClearCart", Handler: unaryHandler("ClearCart", CartServiceServer.ClearCart)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "",
}

// RegisterCartServiceServer registers srv on s.
func RegisterCartServiceServer(s grpc.ServiceRegistrar, srv CartServiceServer) {
	s.RegisterService(&CartServiceDesc, srv)
}

// --- Client ---

// CartServiceClient calls the cart service using the JSON codec.
type CartServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCartServiceClient(cc grpc.ClientConnInterface) *CartServiceClient {
	return &CartServiceClient{cc: cc}
}

func (c *CartServiceClient) invoke(ctx context.Context, method string, in any, opts []grpc.CallOption) (*CartResponse, error) {
	out := new(CartResponse)
	opts = append([]grpc.CallOption{WithJSONCodec()}, opts...)
	if err := c.cc.Invoke(ctx, "/"+CartServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CartServiceClient) GetCart(ctx context.Context, in *CartRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return c.invoke(ctx, "GetCart", in, opts)
}

func (c *CartServiceClient) AddItem(ctx context.Context, in *ItemRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return c.invoke(ctx, "AddItem", in, opts)
}

func (c *CartServiceClient) RemoveItem(ctx context.Context, in *ItemRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return c.invoke(ctx, "RemoveItem", in, opts)
}

func (c *CartServiceClient) SetQuantity(ctx context.Context, in *ItemRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return c.invoke(ctx, "SetQuantity", in, opts)
}

func (c *CartServiceClient) IncrementItem(ctx context.Context, in *ItemRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return c.invoke(ctx, "IncrementItem", in, opts)
}

func (c *CartServiceClient) DecrementItem(ctx context.Context, in *ItemRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return c.invoke(ctx, "DecrementItem", in, opts)
}

func (c *CartServiceClient) ClearCart(ctx context.Context, in *CartRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return c.invoke(ctx, "ClearCart", in, opts)
}
