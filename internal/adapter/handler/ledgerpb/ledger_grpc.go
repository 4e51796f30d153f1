package ledgerpb

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	ServiceName = "laventory.v1.Ledger"

	Ledger_List_FullMethodName           = "/laventory.v1.Ledger/List"
	Ledger_Add_FullMethodName            = "/laventory.v1.Ledger/Add"
	Ledger_Remove_FullMethodName         = "/laventory.v1.Ledger/Remove"
	Ledger_Detect_FullMethodName         = "/laventory.v1.Ledger/Detect"
	Ledger_GenerateRecipe_FullMethodName = "/laventory.v1.Ledger/GenerateRecipe"

	// AuthorizationKey is the metadata key carrying "Bearer <token>".
	AuthorizationKey = "authorization"
)

type LedgerServer interface {
	List(context.Context, *ListRequest) (*InventoryReply, error)
	Add(context.Context, *AddRequest) (*InventoryReply, error)
	Remove(context.Context, *RemoveRequest) (*InventoryReply, error)
	Detect(context.Context, *DetectRequest) (*DetectReply, error)
	GenerateRecipe(context.Context, *RecipeRequest) (*RecipeReply, error)
}

// UnimplementedLedgerServer can be embedded to get forward compatible
// implementations.
type UnimplementedLedgerServer struct{}

func (UnimplementedLedgerServer) List(context.Context, *ListRequest) (*InventoryReply, error) {
	return nil, status.Error(codes.Unimplemented, "method List not implemented")
}

func (UnimplementedLedgerServer) Add(context.Context, *AddRequest) (*InventoryReply, error) {
	return nil, status.Error(codes.Unimplemented, "method Add not implemented")
}

func (UnimplementedLedgerServer) Remove(context.Context, *RemoveRequest) (*InventoryReply, error) {
	return nil, status.Error(codes.Unimplemented, "method Remove not implemented")
}

func (UnimplementedLedgerServer) Detect(context.Context, *DetectRequest) (*DetectReply, error) {
	return nil, status.Error(codes.Unimplemented, "method Detect not implemented")
}

func (UnimplementedLedgerServer) GenerateRecipe(context.Context, *RecipeRequest) (*RecipeReply, error) {
	return nil, status.Error(codes.Unimplemented, "method GenerateRecipe not implemented")
}

func RegisterLedgerServer(s grpc.ServiceRegistrar, srv LedgerServer) {
	s.RegisterService(&Ledger_ServiceDesc, srv)
}

func unaryHandler[Req any, Reply any](fullMethod string, call func(LedgerServer, context.Context, *Req) (Reply, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LedgerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LedgerServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var Ledger_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "List",
			Handler:    unaryHandler(Ledger_List_FullMethodName, LedgerServer.List),
		},
		{
			MethodName: "Add",
			Handler:    unaryHandler(Ledger_Add_FullMethodName, LedgerServer.Add),
		},
		{
			MethodName: "Remove",
			Handler:    unaryHandler(Ledger_Remove_FullMethodName, LedgerServer.Remove),
		},
		{
			MethodName: "Detect",
			Handler:    unaryHandler(Ledger_Detect_FullMethodName, LedgerServer.Detect),
		},
		{
			MethodName: "GenerateRecipe",
			Handler:    unaryHandler(Ledger_GenerateRecipe_FullMethodName, LedgerServer.GenerateRecipe),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "laventory/v1/ledger.proto",
}

type LedgerClient interface {
	List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*InventoryReply, error)
	Add(ctx context.Context, in *AddRequest, opts ...grpc.CallOption) (*InventoryReply, error)
	Remove(ctx context.Context, in *RemoveRequest, opts ...grpc.CallOption) (*InventoryReply, error)
	Detect(ctx context.Context, in *DetectRequest, opts ...grpc.CallOption) (*DetectReply, error)
	GenerateRecipe(ctx context.Context, in *RecipeRequest, opts ...grpc.CallOption) (*RecipeReply, error)
}

type ledgerClient struct {
	cc grpc.ClientConnInterface
}

func NewLedgerClient(cc grpc.ClientConnInterface) LedgerClient {
	return &ledgerClient{cc}
}

func (c *ledgerClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *ledgerClient) List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*InventoryReply, error) {
	out := new(InventoryReply)
	if err := c.invoke(ctx, Ledger_List_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerClient) Add(ctx context.Context, in *AddRequest, opts ...grpc.CallOption) (*InventoryReply, error) {
	out := new(InventoryReply)
	if err := c.invoke(ctx, Ledger_Add_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerClient) Remove(ctx context.Context, in *RemoveRequest, opts ...grpc.CallOption) (*InventoryReply, error) {
	out := new(InventoryReply)
	if err := c.invoke(ctx, Ledger_Remove_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerClient) Detect(ctx context.Context, in *DetectRequest, opts ...grpc.CallOption) (*DetectReply, error) {
	out := new(DetectReply)
	if err := c.invoke(ctx, Ledger_Detect_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerClient) GenerateRecipe(ctx context.Context, in *RecipeRequest, opts ...grpc.CallOption) (*RecipeReply, error) {
	out := new(RecipeReply)
	if err := c.invoke(ctx, Ledger_GenerateRecipe_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// WithToken attaches a bearer token to the outgoing calls of ctx.
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, AuthorizationKey, "Bearer "+token)
}

// TokenFromContext returns the bearer token of an incoming call.
func TokenFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, v := range md.Get(AuthorizationKey) {
		scheme, token, found := strings.Cut(strings.TrimSpace(v), " ")
		if found && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
	}
	return ""
}
