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
	PluginMapKey  = "device"
	serviceName   = "fieldcap.device.v1.Device"
	jsonCodecName = "json"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "FIELDCAP_DEVICE_PLUGIN",
	MagicCookieValue: "fieldcap-device",
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

type Empty struct{}

type PermissionRequest struct {
	Permission string `json:"permission"`
}

type PermissionResponse struct {
	Granted bool `json:"granted"`
}

type PositionResponse struct {
	Found    bool     `json:"found"`
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	Accuracy *float64 `json:"accuracy,omitempty"`
}

type PhotoRef struct {
	URI string `json:"uri"`
}

type PhotoData struct {
	Data        []byte `json:"data"`
	ContentType string `json:"content_type"`
}

type GeocodeRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type GeocodeResponse struct {
	Label string `json:"label"`
}

type DeviceServer interface {
	RequestPermission(ctx context.Context, in *PermissionRequest) (*PermissionResponse, error)
	LastKnownPosition(ctx context.Context, in *Empty) (*PositionResponse, error)
	CurrentPosition(ctx context.Context, in *Empty) (*PositionResponse, error)
	TakePhoto(ctx context.Context, in *Empty) (*PhotoRef, error)
	ReadPhoto(ctx context.Context, in *PhotoRef) (*PhotoData, error)
	SaveToLibrary(ctx context.Context, in *PhotoRef) (*Empty, error)
	ReverseGeocode(ctx context.Context, in *GeocodeRequest) (*GeocodeResponse, error)
}

type DeviceClient interface {
	RequestPermission(ctx context.Context, in *PermissionRequest) (*PermissionResponse, error)
	LastKnownPosition(ctx context.Context) (*PositionResponse, error)
	CurrentPosition(ctx context.Context) (*PositionResponse, error)
	TakePhoto(ctx context.Context) (*PhotoRef, error)
	ReadPhoto(ctx context.Context, in *PhotoRef) (*PhotoData, error)
	SaveToLibrary(ctx context.Context, in *PhotoRef) error
	ReverseGeocode(ctx context.Context, in *GeocodeRequest) (*GeocodeResponse, error)
}

type deviceClient struct {
	conn *grpc.ClientConn
}

func NewDeviceClient(conn *grpc.ClientConn) DeviceClient {
	return &deviceClient{conn: conn}
}

func (c *deviceClient) invoke(ctx context.Context, method string, in, out any) error {
	return c.conn.Invoke(ctx, "/"+serviceName+"/"+method, in, out, grpc.CallContentSubtype(jsonCodecName))
}

func (c *deviceClient) RequestPermission(ctx context.Context, in *PermissionRequest) (*PermissionResponse, error) {
	out := &PermissionResponse{}
	if err := c.invoke(ctx, "RequestPermission", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *deviceClient) LastKnownPosition(ctx context.Context) (*PositionResponse, error) {
	out := &PositionResponse{}
	if err := c.invoke(ctx, "LastKnownPosition", &Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *deviceClient) CurrentPosition(ctx context.Context) (*PositionResponse, error) {
	out := &PositionResponse{}
	if err := c.invoke(ctx, "CurrentPosition", &Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *deviceClient) TakePhoto(ctx context.Context) (*PhotoRef, error) {
	out := &PhotoRef{}
	if err := c.invoke(ctx, "TakePhoto", &Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *deviceClient) ReadPhoto(ctx context.Context, in *PhotoRef) (*PhotoData, error) {
	out := &PhotoData{}
	if err := c.invoke(ctx, "ReadPhoto", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *deviceClient) SaveToLibrary(ctx context.Context, in *PhotoRef) error {
	return c.invoke(ctx, "SaveToLibrary", in, &Empty{})
}

func (c *deviceClient) ReverseGeocode(ctx context.Context, in *GeocodeRequest) (*GeocodeResponse, error) {
	out := &GeocodeResponse{}
	if err := c.invoke(ctx, "ReverseGeocode", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func unary[Req any, Resp any](name string, call func(context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + serviceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				typed, ok := req.(*Req)
				if !ok {
					return nil, fmt.Errorf("invalid request type for %s", name)
				}
				return call(ctx, typed)
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func RegisterDeviceServer(server grpc.ServiceRegistrar, impl DeviceServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*DeviceServer)(nil),
		Methods: []grpc.MethodDesc{
			unary("RequestPermission", impl.RequestPermission),
			unary("LastKnownPosition", impl.LastKnownPosition),
			unary("CurrentPosition", impl.CurrentPosition),
			unary("TakePhoto", impl.TakePhoto),
			unary("ReadPhoto", impl.ReadPhoto),
			unary("SaveToLibrary", impl.SaveToLibrary),
			unary("ReverseGeocode", impl.ReverseGeocode),
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "schemas/device-rpc-v1.proto",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl DeviceServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterDeviceServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewDeviceClient(conn), nil
}

func PluginMap(impl DeviceServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
