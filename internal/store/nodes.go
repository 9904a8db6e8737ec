package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"smartrecruiters-source/internal/node"
)

// NodeStore persists nodes in SQLite. It implements node.Registrar.
type NodeStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewNodeStore(db *sql.DB) *NodeStore {
	return &NodeStore{db: db, now: time.Now}
}

type StoredNode struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Parent        string          `json:"parent,omitempty"`
	ContentDigest string          `json:"contentDigest"`
	Body          json.RawMessage `json:"body"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type ListNodesOpts struct {
	Type   string
	Parent string
	Limit  int
}

func (s *NodeStore) CreateNode(ctx context.Context, n node.Node) error {
	_, err := s.Upsert(ctx, n)
	return err
}

// Upsert writes n and reports whether its content changed. Unchanged nodes
// are only marked as touched.
func (s *NodeStore) Upsert(ctx context.Context, n node.Node) (changed bool, err error) {
	if strings.TrimSpace(n.ID) == "" {
		return false, fmt.Errorf("upsert node: missing id")
	}
	body, err := json.Marshal(n)
	if err != nil {
		return false, fmt.Errorf("upsert node %s: %w", n.ID, err)
	}
	now := s.now().UTC().UnixNano()

	var prev string
	err = s.db.QueryRowContext(ctx,
		`SELECT content_digest FROM nodes WHERE id = ? LIMIT 1;`, n.ID,
	).Scan(&prev)
	if err != nil && err != sql.ErrNoRows {
		return false, err
	}
	changed = err == sql.ErrNoRows || prev != n.Internal.ContentDigest

	_, err = s.db.ExecContext(ctx, `
INSERT INTO nodes(id, type, parent, content_digest, body, updated_at, touched_at)
VALUES(?,?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
  type = excluded.type,
  parent = excluded.parent,
  body = excluded.body,
  updated_at = CASE
    WHEN nodes.content_digest != excluded.content_digest THEN excluded.updated_at
    ELSE nodes.updated_at
  END,
  content_digest = excluded.content_digest,
  touched_at = excluded.touched_at;
`,
		n.ID,
		n.Internal.Type,
		n.Parent,
		n.Internal.ContentDigest,
		string(body),
		now,
		now,
	)
	if err != nil {
		return false, fmt.Errorf("upsert node %s: %w", n.ID, err)
	}
	return changed, nil
}

func (s *NodeStore) ListNodes(ctx context.Context, opts ListNodesOpts) ([]StoredNode, error) {
	var (
		conds []string
		args  []any
	)
	if opts.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, opts.Type)
	}
	if opts.Parent != "" {
		conds = append(conds, "parent = ?")
		args = append(args, opts.Parent)
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	if opts.Limit <= 0 {
		opts.Limit = -1 // sqlite: no limit
	}
	args = append(args, opts.Limit)

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
SELECT id, type, parent, content_digest, body, updated_at
FROM nodes
%s
ORDER BY id
LIMIT ?;
`, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredNode
	for rows.Next() {
		var (
			sn      StoredNode
			body    string
			updated int64
		)
		if err := rows.Scan(&sn.ID, &sn.Type, &sn.Parent, &sn.ContentDigest, &body, &updated); err != nil {
			return nil, err
		}
		sn.Body = json.RawMessage(body)
		sn.UpdatedAt = time.Unix(0, updated).UTC()
		out = append(out, sn)
	}
	return out, rows.Err()
}

// PruneBefore deletes nodes not registered since t, i.e. postings and
// departments that disappeared upstream.
func (s *NodeStore) PruneBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM nodes WHERE touched_at < ?;`, t.UTC().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune nodes: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
