// Package node builds the graph nodes handed to the site build and defines
// the sink interface they are registered through.
package node

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"smartrecruiters-source/internal/domain"
)

const (
	DefaultTypePrefix = "SmartRecruiters"

	TypeDepartment = "Department"
	TypeJobPost    = "JobPost"
)

// Internal mirrors the host's bookkeeping block on every node.
type Internal struct {
	Type          string `json:"type"`
	ContentDigest string `json:"contentDigest"`
	Owner         string `json:"owner,omitempty"`
}

// Node is one graph unit. Fields holds the platform data; it is flattened
// next to the bookkeeping keys when the node is encoded.
type Node struct {
	ID       string
	Parent   string
	Children []string
	Internal Internal
	Fields   domain.Record
}

// reserved keys win over platform fields of the same name
var reserved = []string{"id", "parent", "children", "internal"}

func (n Node) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(n.Fields)+len(reserved))
	for k, v := range n.Fields {
		m[k] = v
	}
	var parent any
	if n.Parent != "" {
		parent = n.Parent
	}
	children := n.Children
	if children == nil {
		children = []string{}
	}
	m["id"] = n.ID
	m["parent"] = parent
	m["children"] = children
	m["internal"] = n.Internal
	return json.Marshal(m)
}

// Registrar is the host's "register node" operation. Implementations must
// be safe for concurrent use.
type Registrar interface {
	CreateNode(ctx context.Context, n Node) error
}

type RegistrarFunc func(ctx context.Context, n Node) error

func (f RegistrarFunc) CreateNode(ctx context.Context, n Node) error { return f(ctx, n) }

// Factory turns normalized records into typed nodes.
type Factory struct {
	Prefix string
	Owner  string
}

func NewFactory(prefix string) Factory {
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultTypePrefix
	}
	return Factory{Prefix: prefix}
}

// NodeID is <prefix>__<type>__<id>.
func (f Factory) NodeID(typ, id string) string {
	return f.Prefix + "__" + typ + "__" + id
}

// SourceIDKey is the field that keeps the platform id, e.g. smartRecruitersId.
func (f Factory) SourceIDKey() string {
	r := []rune(f.Prefix)
	if len(r) > 0 {
		r[0] = unicode.ToLower(r[0])
	}
	return string(r) + "Id"
}

// JobPost builds a job-post node owned by the department node parentID.
func (f Factory) JobPost(rec domain.Record, parentID string) (Node, error) {
	return f.build(TypeJobPost, rec, parentID, nil)
}

// Department builds a department node; jobPosts are embedded and their node
// ids listed as children.
func (f Factory) Department(d domain.Department) (Node, error) {
	fields := d.Record.Clone()
	children := make([]string, 0, len(d.JobPosts))
	posts := make([]domain.Record, 0, len(d.JobPosts))
	for _, jp := range d.JobPosts {
		children = append(children, f.NodeID(TypeJobPost, jp.ID()))
		posts = append(posts, jp)
	}
	fields["jobPosts"] = posts
	return f.build(TypeDepartment, fields, "", children)
}

func (f Factory) build(typ string, rec domain.Record, parentID string, children []string) (Node, error) {
	id := rec.ID()
	if id == "" {
		return Node{}, fmt.Errorf("%w: %s without string id", domain.ErrMalformedRecord, typ)
	}

	fields := rec.Clone()
	delete(fields, "id")
	fields[f.SourceIDKey()] = id

	digest, err := Digest(rec)
	if err != nil {
		return Node{}, err
	}

	return Node{
		ID:       f.NodeID(typ, id),
		Parent:   parentID,
		Children: children,
		Internal: Internal{
			Type:          f.Prefix + typ,
			ContentDigest: digest,
			Owner:         f.Owner,
		},
		Fields: fields,
	}, nil
}

// Digest is the hex md5 of the record's JSON encoding. Map keys are encoded
// in sorted order, so equal records give equal digests.
func Digest(rec domain.Record) (string, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:]), nil
}
