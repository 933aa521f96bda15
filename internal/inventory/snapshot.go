package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

// Session carries what a live client would need to log in. The snapshot
// client only records it.
type Session struct {
	AuthService string
	Username    string
	Password    string
	Latitude    float64
	Longitude   float64
	Altitude    float64
}

// SnapshotClient serves a captured inventory response from memory.
// Release drops the matching item so a later fetch reflects the removal.
type SnapshotClient struct {
	mu       sync.Mutex
	resp     Response
	released []string
	logger   *zap.Logger
}

// NewSnapshotClient wraps an already decoded response.
func NewSnapshotClient(resp Response, logger *zap.Logger) *SnapshotClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resp == nil {
		resp = Response{}
	}
	return &SnapshotClient{resp: resp, logger: logger}
}

// LoadSnapshot reads a JSON response dump. Numbers are kept as json.Number
// so 64-bit identifiers are not rounded.
func LoadSnapshot(path string, logger *zap.Logger) (*SnapshotClient, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory snapshot: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var resp Response
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to parse inventory snapshot %s: %w", path, err)
	}
	return NewSnapshotClient(resp, logger), nil
}

// Connect records the session the caller would have used against the live service.
func (c *SnapshotClient) Connect(_ context.Context, s Session) error {
	c.logger.Info("Using inventory snapshot",
		zap.String("auth_service", s.AuthService),
		zap.String("username", s.Username),
		zap.Float64("lat", s.Latitude),
		zap.Float64("lng", s.Longitude))
	return nil
}

// FetchInventory returns the current snapshot. Callers must not modify it.
func (c *SnapshotClient) FetchInventory(ctx context.Context) (Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resp, nil
}

// Release removes the specimen with the given id from the snapshot.
func (c *SnapshotClient) Release(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	list := items(c.resp)
	for i, item := range list {
		raw, ok := Lookup(item, specimenPath...)
		if !ok {
			continue
		}
		v, ok := Lookup(raw, "id")
		if !ok {
			continue
		}
		if got, _ := String(v); got != id {
			continue
		}

		// Copy-on-write so responses handed out earlier stay intact.
		next := make([]any, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		c.resp = withItems(c.resp, next)
		c.released = append(c.released, id)
		c.logger.Debug("Released specimen from snapshot", zap.String("id", id))
		return nil
	}
	return fmt.Errorf("specimen %s not found in inventory", id)
}

// Released returns the ids released so far, in order.
func (c *SnapshotClient) Released() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.released...)
}

// withItems rebuilds the map spine down to the inventory list.
func withItems(resp Response, list []any) Response {
	var rebuild func(node any, depth int) any
	rebuild = func(node any, depth int) any {
		if depth == len(itemsPath) {
			return list
		}
		m, _ := asMap(node)
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		out[itemsPath[depth]] = rebuild(m[itemsPath[depth]], depth+1)
		return out
	}
	return Response(rebuild(resp, 0).(map[string]any))
}
