package source

import (
	"context"
	"fmt"

	"smartrecruiters-source/internal/domain"
	"smartrecruiters-source/internal/node"
)

// Emitter registers a department and its job posts with the host.
type Emitter struct {
	Factory   node.Factory
	Registrar node.Registrar
}

// Emit registers every job-post node of d, then the department node.
// It returns the number of nodes registered.
func (e Emitter) Emit(ctx context.Context, d domain.Department) (int, error) {
	dept, err := domain.NormalizeID(d.Record)
	if err != nil {
		return 0, err
	}
	parentID := e.Factory.NodeID(node.TypeDepartment, dept.ID())

	posts := make([]domain.Record, 0, len(d.JobPosts))
	registered := 0
	for _, jp := range d.JobPosts {
		rec, err := domain.NormalizeID(jp)
		if err != nil {
			return registered, err
		}
		n, err := e.Factory.JobPost(rec, parentID)
		if err != nil {
			return registered, err
		}
		if err := e.Registrar.CreateNode(ctx, n); err != nil {
			return registered, fmt.Errorf("register %s: %w", n.ID, err)
		}
		registered++
		posts = append(posts, rec)
	}

	n, err := e.Factory.Department(domain.Department{Record: dept, JobPosts: posts})
	if err != nil {
		return registered, err
	}
	if err := e.Registrar.CreateNode(ctx, n); err != nil {
		return registered, fmt.Errorf("register %s: %w", n.ID, err)
	}
	return registered + 1, nil
}
