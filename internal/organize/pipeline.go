package organize

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"medio/internal/config"
	"medio/internal/fingerprint"
	"medio/internal/index"
	"medio/internal/logging"
	"medio/internal/pathformat"
	"medio/internal/scan"
	"medio/internal/services"
	"medio/internal/timestamp"
)

// Pipeline drives each source file through the organize state machine:
// resolve timestamp, fingerprint content, decide against the destination
// index, execute the decision, report.
type Pipeline struct {
	cfg      *config.Config
	template *pathformat.Template
	resolver *timestamp.Resolver
	ix       *index.Index
	exec     Executor
	cache    *index.Cache
	logger   *slog.Logger
}

// Option customizes pipeline construction.
type Option func(*Pipeline)

// WithCache lets the pipeline refresh the fingerprint cache for files it
// places, so the next pre-seed pass finds them without re-hashing.
func WithCache(cache *index.Cache) Option {
	return func(p *Pipeline) { p.cache = cache }
}

// WithResolver injects a timestamp resolver (used in tests).
func WithResolver(r *timestamp.Resolver) Option {
	return func(p *Pipeline) { p.resolver = r }
}

// New constructs a pipeline. The configured format template is parsed once
// and reused for every file.
func New(cfg *config.Config, ix *index.Index, exec Executor, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	template, err := pathformat.Parse(cfg.Organize.Format)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "organize", "parse template", err.Error(), nil)
	}
	p := &Pipeline{
		cfg:      cfg,
		template: template,
		resolver: timestamp.NewResolver(logger),
		ix:       ix,
		exec:     exec,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run processes the candidates and returns the run summary. Per-file errors
// are collected into the summary; a fatal error (configuration or counter
// exhaustion) aborts the run, and the returned error names the file that was
// being processed.
//
// Files are handed to organize.workers goroutines; the destination index is
// the single point of synchronization, so counter assignment for colliding
// files is deterministic for a fixed input ordering when running with one
// worker, and merely stable-per-path otherwise.
func (p *Pipeline) Run(ctx context.Context, candidates []scan.Candidate) (*Summary, error) {
	summary := &Summary{}
	if len(candidates) == 0 {
		return summary, nil
	}

	workers := p.cfg.Organize.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan scan.Candidate)
	var (
		wg       sync.WaitGroup
		fatalMu  sync.Mutex
		fatalErr error
	)

	setFatal := func(err error) {
		fatalMu.Lock()
		if fatalErr == nil {
			fatalErr = err
		}
		fatalMu.Unlock()
		cancel()
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for candidate := range jobs {
				decision := p.processFile(runCtx, candidate)
				summary.record(decision)
				if decision.Kind == DecisionFail && services.Fatal(decision.Err) {
					setFatal(decision.Err)
					return
				}
			}
		}()
	}

feed:
	for _, candidate := range candidates {
		select {
		case jobs <- candidate:
		case <-runCtx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	fatalMu.Lock()
	err := fatalErr
	fatalMu.Unlock()
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	return summary, err
}

func (p *Pipeline) processFile(ctx context.Context, candidate scan.Candidate) Decision {
	ctx = services.WithSourcePath(ctx, candidate.Path)
	logger := logging.WithContext(ctx, p.logger)

	// Resolving. Cannot fail: every file has a modification time.
	captured := p.resolver.Resolve(candidate.Path, candidate.ModTime)

	// Fingerprinting.
	fp, err := fingerprint.File(candidate.Path)
	if err != nil {
		logger.Warn("fingerprinting failed", logging.Error(err))
		return Decision{Source: candidate, Kind: DecisionFail, Err: err}
	}

	// Deciding. Lookup and reserve run as one atomic unit inside the index.
	render := func(counter int) string {
		return p.template.Render(pathformat.Input{
			Timestamp: captured,
			Extension: candidate.Extension,
			Counter:   counter,
		})
	}
	relPath, existing, err := p.ix.Resolve(fp, render, p.template.HasCounter())
	if err != nil {
		logger.Error("path reservation failed", logging.Error(err))
		return Decision{Source: candidate, Kind: DecisionFail, Err: err}
	}

	if existing {
		return p.skipDuplicate(logger, candidate, relPath)
	}
	return p.place(ctx, logger, candidate, fp, relPath)
}

func (p *Pipeline) skipDuplicate(logger *slog.Logger, candidate scan.Candidate, existingPath string) Decision {
	logger.Info("duplicate content detected",
		logging.String("existing_path", existingPath),
		logging.Bool("delete_duplicates", p.cfg.Organize.DeleteDuplicates),
	)
	if p.cfg.Organize.DeleteDuplicates {
		if err := p.exec.Delete(candidate.Path); err != nil {
			// The skip verdict stands; the stale source just survives.
			logger.Warn("failed to delete duplicate source", logging.Error(err))
		}
	}
	return Decision{Source: candidate, Kind: DecisionSkipDuplicate, ExistingPath: existingPath}
}

func (p *Pipeline) place(ctx context.Context, logger *slog.Logger, candidate scan.Candidate, fp fingerprint.Fingerprint, relPath string) Decision {
	dst := filepath.Join(p.cfg.Paths.LibraryDir, filepath.FromSlash(relPath))
	if err := p.exec.CopyOrMove(candidate.Path, dst); err != nil {
		p.ix.ReleaseFingerprint(fp)
		wrapped := services.Wrap(services.ErrIO, "organizing", "place file", "Failed to move "+candidate.Path+" to "+dst, err)
		logger.Warn("placement failed", logging.Error(wrapped))
		return Decision{Source: candidate, Kind: DecisionFail, Err: wrapped}
	}

	logger.Info("file placed", logging.String("final_path", relPath))
	p.refreshCache(ctx, relPath, dst, fp)
	return Decision{Source: candidate, Kind: DecisionPlace, Path: relPath}
}

func (p *Pipeline) refreshCache(ctx context.Context, relPath, dst string, fp fingerprint.Fingerprint) {
	if p.cache == nil {
		return
	}
	info, err := os.Stat(dst)
	if err != nil {
		// Dry runs place nothing; there is nothing to cache.
		return
	}
	if err := p.cache.Put(ctx, relPath, info.Size(), info.ModTime().UnixNano(), fp); err != nil {
		p.logger.Warn("fingerprint cache refresh failed", logging.String("path", relPath), logging.Error(err))
	}
}
