package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey   = "extension"
	serviceName    = "extrt.plugin.v1.Extension"
	jsonCodecName  = "json"
	methodExchange = "/" + serviceName + "/Exchange"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "EXTRT_PLUGIN",
	MagicCookieValue: "extrt",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// Envelope carries one request to the plugin and its response back. Code is
// only set on responses.
type Envelope struct {
	ID        string `json:"id"`
	Extension string `json:"extension"`
	Version   string `json:"version"`
	Name      string `json:"name"`
	Body      string `json:"body"`
	Code      int32  `json:"code"`
}

type ExtensionServer interface {
	Exchange(ctx context.Context, in *Envelope) (*Envelope, error)
}

type ExtensionClient interface {
	Exchange(ctx context.Context, in *Envelope) (*Envelope, error)
}

type extensionClient struct {
	conn *grpc.ClientConn
}

func NewExtensionClient(conn *grpc.ClientConn) ExtensionClient {
	return &extensionClient{conn: conn}
}

func (c *extensionClient) Exchange(ctx context.Context, in *Envelope) (*Envelope, error) {
	out := &Envelope{}
	if err := c.conn.Invoke(ctx, methodExchange, in, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterExtensionServer(server grpc.ServiceRegistrar, impl ExtensionServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*ExtensionServer)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "Exchange",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &Envelope{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.Exchange(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodExchange}
					handler := func(ctx context.Context, req any) (any, error) {
						envelope, ok := req.(*Envelope)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.Exchange(ctx, envelope)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "extension-rpc-v1",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl ExtensionServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterExtensionServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewExtensionClient(conn), nil
}

func PluginMap(impl ExtensionServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
