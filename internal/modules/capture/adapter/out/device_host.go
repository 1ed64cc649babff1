package out

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	deviceRPC "fieldcap/internal/modules/capture/adapter/out/rpc"
	"fieldcap/internal/modules/capture/domain"
	captureout "fieldcap/internal/modules/capture/port/out"
	"fieldcap/internal/platform/logging"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 5 * time.Second
)

// PluginDevice talks to a device plugin binary over go-plugin gRPC. One plugin process
// serves the whole capture flow; Close kills it.
type PluginDevice struct {
	client *plugin.Client
	rpc    deviceRPC.DeviceClient
}

var _ captureout.Device = (*PluginDevice)(nil)

func OpenPluginDevice(binary string, logger hclog.Logger) (*PluginDevice, error) {
	if strings.TrimSpace(binary) == "" {
		return nil, fmt.Errorf("device plugin path is required")
	}
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  deviceRPC.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          deviceRPC.PluginMap(nil),
		Cmd:              exec.Command(binary),
		Managed:          true,
		StartTimeout:     defaultStartTimeout,
		Logger:           logging.OrDiscard(logger).Named("device-plugin"),
	})
	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("start device plugin: %w", err)
	}
	raw, err := rpcClient.Dispense(deviceRPC.PluginMapKey)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("dispense device plugin: %w", err)
	}
	typed, ok := raw.(deviceRPC.DeviceClient)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("device plugin rpc client type mismatch")
	}
	return &PluginDevice{client: client, rpc: typed}, nil
}

func (d *PluginDevice) Close() error {
	d.client.Kill()
	return nil
}

func (d *PluginDevice) RequestPermission(ctx context.Context, permission domain.Permission) (bool, error) {
	ctx, cancel := callContext(ctx)
	defer cancel()
	out, err := d.rpc.RequestPermission(ctx, &deviceRPC.PermissionRequest{Permission: string(permission)})
	if err != nil {
		return false, fmt.Errorf("request %s permission: %w", permission, err)
	}
	return out.Granted, nil
}

func (d *PluginDevice) LastKnownPosition(ctx context.Context) (domain.Position, bool, error) {
	ctx, cancel := callContext(ctx)
	defer cancel()
	out, err := d.rpc.LastKnownPosition(ctx)
	if err != nil {
		return domain.Position{}, false, fmt.Errorf("last known position: %w", err)
	}
	return toPosition(out), out.Found, nil
}

func (d *PluginDevice) CurrentPosition(ctx context.Context) (domain.Position, error) {
	ctx, cancel := callContext(ctx)
	defer cancel()
	out, err := d.rpc.CurrentPosition(ctx)
	if err != nil {
		return domain.Position{}, fmt.Errorf("current position: %w", err)
	}
	if !out.Found {
		return domain.Position{}, fmt.Errorf("current position: no fix")
	}
	return toPosition(out), nil
}

func (d *PluginDevice) TakePhoto(ctx context.Context) (string, error) {
	ctx, cancel := callContext(ctx)
	defer cancel()
	out, err := d.rpc.TakePhoto(ctx)
	if err != nil {
		return "", fmt.Errorf("take photo: %w", err)
	}
	return out.URI, nil
}

func (d *PluginDevice) ReadPhoto(ctx context.Context, uri string) ([]byte, string, error) {
	ctx, cancel := callContext(ctx)
	defer cancel()
	out, err := d.rpc.ReadPhoto(ctx, &deviceRPC.PhotoRef{URI: uri})
	if err != nil {
		return nil, "", fmt.Errorf("read photo %s: %w", uri, err)
	}
	return out.Data, out.ContentType, nil
}

func (d *PluginDevice) SaveToLibrary(ctx context.Context, uri string) error {
	ctx, cancel := callContext(ctx)
	defer cancel()
	if err := d.rpc.SaveToLibrary(ctx, &deviceRPC.PhotoRef{URI: uri}); err != nil {
		return fmt.Errorf("save to library: %w", err)
	}
	return nil
}

func (d *PluginDevice) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	ctx, cancel := callContext(ctx)
	defer cancel()
	out, err := d.rpc.ReverseGeocode(ctx, &deviceRPC.GeocodeRequest{Lat: lat, Lon: lon})
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	return out.Label, nil
}

func toPosition(p *deviceRPC.PositionResponse) domain.Position {
	return domain.Position{Lat: p.Lat, Lon: p.Lon, Accuracy: p.Accuracy}
}

func callContext(parent context.Context) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, defaultCallTimeout)
}
