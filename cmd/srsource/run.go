package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"smartrecruiters-source/internal/config"
	"smartrecruiters-source/internal/netutil"
	"smartrecruiters-source/internal/node"
	"smartrecruiters-source/internal/secrets"
	"smartrecruiters-source/internal/smartrecruiters"
	"smartrecruiters-source/internal/source"
	"smartrecruiters-source/internal/store"
)

func newRunCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Fetch, reconcile and emit nodes once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, v, err := loadConfig(f)
			log := newLogger(cfg, cmd)
			for _, w := range v.Warnings {
				log.Warn().Str("component", "config").Msg(w)
			}
			if err != nil {
				log.Error().Err(err).Str("config", f.configPath).Msg("config invalid")
				return err
			}

			log = log.With().Str("run_id", uuid.NewString()).Logger()
			if _, err := runOnce(cmd.Context(), cfg, cmd.OutOrStdout(), log); err != nil {
				log.Error().Err(err).Msg("run failed")
				return err
			}
			return nil
		},
	}
}

// runOnce wires the client, the node sink and the pipeline for one pass.
func runOnce(ctx context.Context, cfg config.Config, stdout io.Writer, log zerolog.Logger) (source.Result, error) {
	start := time.Now()

	token, err := secrets.ResolveToken(cfg.Client.TokenKeyringAccount, cfg.Client.Token)
	if err != nil {
		return source.Result{}, err
	}

	client := smartrecruiters.New(
		smartrecruiters.WithBaseURL(cfg.Client.BaseURL),
		smartrecruiters.WithUserAgent(cfg.Client.UserAgent),
		smartrecruiters.WithToken(token),
		smartrecruiters.WithPageSize(cfg.Client.PageSize),
		smartrecruiters.WithTimeout(cfg.Client.Timeout),
		smartrecruiters.WithLimiter(netutil.NewHostLimiter(cfg.Client.RequestsPerSecond, cfg.Client.Burst)),
		smartrecruiters.WithLogger(log.With().Str("component", "smartrecruiters").Logger()),
	)

	sink, finish, err := openSink(cfg, stdout)
	if err != nil {
		return source.Result{}, err
	}

	em := source.Emitter{
		Factory:   node.NewFactory(cfg.Pipeline.TypePrefix),
		Registrar: sink,
	}
	res, err := source.Run(ctx, client, em, source.Options{
		Company:        cfg.CompanyIdentifier,
		JobPostParams:  cfg.PluginOptions.JobPosts,
		MaxConcurrency: cfg.Pipeline.MaxConcurrency,
		Logger:         log,
	})
	if err != nil {
		_ = finish(false)
		return res, err
	}

	if ns, ok := sink.(*store.NodeStore); ok && cfg.Output.Prune {
		n, err := ns.PruneBefore(ctx, start)
		if err != nil {
			_ = finish(false)
			return res, err
		}
		log.Info().Str("component", "store").Int64("pruned", n).Msg("stale nodes removed")
	}
	return res, finish(true)
}

// openSink returns the node registrar and a finish func. A jsonl file is
// written to path.tmp and only renamed over path by finish(true), so a failed
// run leaves the previous output in place.
func openSink(cfg config.Config, stdout io.Writer) (node.Registrar, func(ok bool) error, error) {
	switch cfg.Output.Kind {
	case "sqlite":
		db, err := store.Open(cfg.Output.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open node store: %w", err)
		}
		return store.NewNodeStore(db.Pool), func(bool) error { return db.Close() }, nil
	case "jsonl", "":
		if cfg.Output.Path == "" || cfg.Output.Path == "-" {
			return node.NewJSONLWriter(stdout), func(bool) error { return nil }, nil
		}
		path := cfg.Output.Path
		tmp := path + ".tmp"
		fh, err := os.Create(tmp)
		if err != nil {
			return nil, nil, fmt.Errorf("open node output: %w", err)
		}
		finish := func(ok bool) error {
			cerr := fh.Close()
			if !ok || cerr != nil {
				_ = os.Remove(tmp)
				return cerr
			}
			if err := os.Rename(tmp, path); err != nil {
				_ = os.Remove(tmp)
				return fmt.Errorf("publish node output: %w", err)
			}
			return nil
		}
		return node.NewJSONLWriter(fh), finish, nil
	default:
		return nil, nil, fmt.Errorf("unknown output kind %q", cfg.Output.Kind)
	}
}
