package source

import (
	"fmt"

	"smartrecruiters-source/internal/domain"
)

// Index maps a normalized job-post id to its full record. It is built once
// per run and only read afterwards.
type Index map[string]domain.Record

// NewIndex normalizes the full job list and indexes it by id. A later
// duplicate id replaces an earlier one.
func NewIndex(full []domain.Record) (Index, error) {
	ix := make(Index, len(full))
	for _, r := range full {
		n, err := domain.NormalizeID(r)
		if err != nil {
			return nil, fmt.Errorf("index job posts: %w", err)
		}
		ix[n.ID()] = n
	}
	return ix, nil
}

// Reconcile attaches to dept the full records of the filtered job ids, in
// filtered order. Ids missing from the index are dropped.
func (ix Index) Reconcile(dept domain.Record, filtered []domain.Record) (domain.Department, error) {
	d, err := domain.NormalizeID(dept)
	if err != nil {
		return domain.Department{}, fmt.Errorf("department: %w", err)
	}

	posts := make([]domain.Record, 0, len(filtered))
	for _, job := range filtered {
		j, err := domain.NormalizeID(job)
		if err != nil {
			return domain.Department{}, fmt.Errorf("department %s job: %w", d.ID(), err)
		}
		full, ok := ix[j.ID()]
		if !ok {
			continue
		}
		posts = append(posts, full.Clone())
	}

	return domain.Department{Record: d, JobPosts: posts}, nil
}
