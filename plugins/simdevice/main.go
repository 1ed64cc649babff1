package main

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-plugin"

	deviceRPC "fieldcap/internal/modules/capture/adapter/out/rpc"
)

// server simulates a phone. Photos cycle through the images in FIELDCAP_SIM_PHOTO_DIR and
// the position comes from FIELDCAP_SIM_LAT / FIELDCAP_SIM_LON.
type server struct {
	mu       sync.Mutex
	photoDir string
	library  string
	lat      float64
	lon      float64
	hasFix   bool
	accuracy *float64
	label    string
	denied   map[string]bool
	next     int
}

func newServer() *server {
	s := &server{
		photoDir: os.Getenv("FIELDCAP_SIM_PHOTO_DIR"),
		library:  os.Getenv("FIELDCAP_SIM_LIBRARY_DIR"),
		label:    os.Getenv("FIELDCAP_SIM_LOCATION"),
		denied:   map[string]bool{},
	}
	lat, latErr := strconv.ParseFloat(os.Getenv("FIELDCAP_SIM_LAT"), 64)
	lon, lonErr := strconv.ParseFloat(os.Getenv("FIELDCAP_SIM_LON"), 64)
	if latErr == nil && lonErr == nil {
		s.lat, s.lon, s.hasFix = lat, lon, true
	}
	if acc, err := strconv.ParseFloat(os.Getenv("FIELDCAP_SIM_ACCURACY"), 64); err == nil {
		s.accuracy = &acc
	}
	for _, name := range strings.Split(os.Getenv("FIELDCAP_SIM_DENY"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			s.denied[name] = true
		}
	}
	return s
}

func (s *server) RequestPermission(_ context.Context, in *deviceRPC.PermissionRequest) (*deviceRPC.PermissionResponse, error) {
	return &deviceRPC.PermissionResponse{Granted: !s.denied[in.Permission]}, nil
}

func (s *server) LastKnownPosition(ctx context.Context, in *deviceRPC.Empty) (*deviceRPC.PositionResponse, error) {
	return s.CurrentPosition(ctx, in)
}

func (s *server) CurrentPosition(context.Context, *deviceRPC.Empty) (*deviceRPC.PositionResponse, error) {
	return &deviceRPC.PositionResponse{Found: s.hasFix, Lat: s.lat, Lon: s.lon, Accuracy: s.accuracy}, nil
}

func (s *server) TakePhoto(context.Context, *deviceRPC.Empty) (*deviceRPC.PhotoRef, error) {
	photos, err := s.photos()
	if err != nil {
		return nil, err
	}
	if len(photos) == 0 {
		return s.placeholder()
	}
	s.mu.Lock()
	photo := photos[s.next%len(photos)]
	s.next++
	s.mu.Unlock()
	return &deviceRPC.PhotoRef{URI: "file://" + photo}, nil
}

func (s *server) ReadPhoto(_ context.Context, in *deviceRPC.PhotoRef) (*deviceRPC.PhotoData, error) {
	path := strings.TrimPrefix(in.URI, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", in.URI, err)
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &deviceRPC.PhotoData{Data: data, ContentType: contentType}, nil
}

func (s *server) SaveToLibrary(_ context.Context, in *deviceRPC.PhotoRef) (*deviceRPC.Empty, error) {
	if s.library == "" {
		return &deviceRPC.Empty{}, nil
	}
	src := strings.TrimPrefix(in.URI, "file://")
	if err := copyFile(src, filepath.Join(s.library, filepath.Base(src))); err != nil {
		return nil, err
	}
	return &deviceRPC.Empty{}, nil
}

func (s *server) ReverseGeocode(_ context.Context, in *deviceRPC.GeocodeRequest) (*deviceRPC.GeocodeResponse, error) {
	if s.label != "" {
		return &deviceRPC.GeocodeResponse{Label: s.label}, nil
	}
	return &deviceRPC.GeocodeResponse{Label: fmt.Sprintf("%.4f, %.4f", in.Lat, in.Lon)}, nil
}

func (s *server) photos() ([]string, error) {
	if s.photoDir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(s.photoDir)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	out := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png", ".heic":
			out = append(out, filepath.Join(s.photoDir, entry.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *server) placeholder() (*deviceRPC.PhotoRef, error) {
	name := filepath.Join(os.TempDir(), fmt.Sprintf("fieldcap-sim-%d.jpg", time.Now().UnixNano()))
	if err := os.WriteFile(name, []byte("simulated photo"), 0o644); err != nil {
		return nil, fmt.Errorf("write placeholder photo: %w", err)
	}
	return &deviceRPC.PhotoRef{URI: "file://" + name}, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: deviceRPC.HandshakeConfig,
		Plugins:         deviceRPC.PluginMap(newServer()),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
