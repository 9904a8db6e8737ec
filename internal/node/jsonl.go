package node

import (
	"context"
	"encoding/json"
	"io"
	"sync"
)

// JSONLWriter registers nodes by writing one JSON object per line.
type JSONLWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
	n   int
}

func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{enc: json.NewEncoder(w)}
}

func (j *JSONLWriter) CreateNode(ctx context.Context, n Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.enc.Encode(n); err != nil {
		return err
	}
	j.n++
	return nil
}

// Count is the number of nodes written so far.
func (j *JSONLWriter) Count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.n
}
