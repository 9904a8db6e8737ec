// Package source fetches departments and job posts for one company, joins
// them, and registers the result as graph nodes.
package source

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"smartrecruiters-source/internal/domain"
	"smartrecruiters-source/internal/smartrecruiters"
)

// Fetcher is the upstream API. *smartrecruiters.Client satisfies it.
type Fetcher interface {
	Departments(ctx context.Context, company string) ([]domain.Record, error)
	JobPosts(ctx context.Context, company string, params map[string]any) ([]domain.Record, error)
}

type Options struct {
	Company string
	// JobPostParams is passed through on the unfiltered job fetch only.
	JobPostParams map[string]any
	// MaxConcurrency caps department fan-out; <= 0 means unbounded.
	MaxConcurrency int
	Logger         zerolog.Logger
}

type Result struct {
	Departments int // fetched
	JobPosts    int // fetched, unfiltered
	Attached    int // job posts attached across all departments
	Nodes       int // registered
	Took        time.Duration
}

// Run does one fetch-join-emit pass. The first failure cancels the rest and
// is returned wrapped in ErrFetchCatalog or ErrFetchDepartmentJobs when it
// came from the upstream API.
func Run(ctx context.Context, f Fetcher, em Emitter, opts Options) (Result, error) {
	start := time.Now()
	log := opts.Logger.With().Str("component", "source").Str("company", opts.Company).Logger()
	log.Info().Msg("starting to fetch data from SmartRecruiters")

	var (
		res         Result
		departments []domain.Record
		jobPosts    []domain.Record
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		departments, err = f.Departments(gctx, opts.Company)
		return err
	})
	g.Go(func() error {
		var err error
		jobPosts, err = f.JobPosts(gctx, opts.Company, opts.JobPostParams)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("failed to fetch data from SmartRecruiters")
		return res, fmt.Errorf("%w: %w", ErrFetchCatalog, err)
	}

	res.Departments = len(departments)
	res.JobPosts = len(jobPosts)
	log.Info().Int("count", res.JobPosts).Msg("jobPosts fetched")
	log.Info().Int("count", res.Departments).Msg("departments fetched")

	ix, err := NewIndex(jobPosts)
	if err != nil {
		return res, err
	}

	var attached, nodes atomic.Int64
	g, gctx = errgroup.WithContext(ctx)
	if opts.MaxConcurrency > 0 {
		g.SetLimit(opts.MaxConcurrency)
	}
	for _, dept := range departments {
		dept := dept
		g.Go(func() error {
			d, err := domain.NormalizeID(dept)
			if err != nil {
				return err
			}

			filtered, err := f.JobPosts(gctx, opts.Company, map[string]any{
				smartrecruiters.DepartmentParam: d.ID(),
			})
			if err != nil {
				log.Error().Err(err).Str("department", d.ID()).Msg("failed to fetch jobs for department")
				return fmt.Errorf("%w %s: %w", ErrFetchDepartmentJobs, d.ID(), err)
			}

			rd, err := ix.Reconcile(d, filtered)
			if err != nil {
				return err
			}
			attached.Add(int64(len(rd.JobPosts)))

			n, err := em.Emit(gctx, rd)
			nodes.Add(int64(n))
			if err != nil {
				return err
			}
			log.Debug().
				Str("department", d.ID()).
				Str("label", d.Label()).
				Int("filtered", len(filtered)).
				Int("attached", len(rd.JobPosts)).
				Msg("department emitted")
			return nil
		})
	}
	err = g.Wait()

	res.Attached = int(attached.Load())
	res.Nodes = int(nodes.Load())
	res.Took = time.Since(start)
	if err != nil {
		return res, err
	}

	log.Info().
		Int("departments", res.Departments).
		Int("attached", res.Attached).
		Int("nodes", res.Nodes).
		Dur("took", res.Took).
		Msg("done")
	return res, nil
}
