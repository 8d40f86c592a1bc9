// Package depict is the application service behind every entry point of the
// annotation pipeline: the HTTP API, the CLI and the asynchronous worker all
// call Service.Annotate.
package depict

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/KeyIP-Depict/internal/domain/molecule"
	"github.com/turtacn/KeyIP-Depict/internal/domain/reaction"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/database/redis"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
	dto "github.com/turtacn/KeyIP-Depict/pkg/types/depict"
)

// cachePrefix namespaces annotation results inside the shared cache.
const cachePrefix = "annotate:"

// Pass names as reported in logs and metrics.
const (
	PassValence   = "valence"
	PassHydrogens = "hydrogens"
	PassHydrates  = "hydrates"
	PassSync      = "sync"
	PassChanges   = "changes"
)

// Service annotates molecules and reactions.
type Service interface {
	Annotate(ctx context.Context, req *dto.AnnotateRequest) (*dto.AnnotateResponse, error)
	Options(ctx context.Context) *dto.OptionsResponse
	// PurgeCache drops every cached annotation and reports how many entries
	// were removed.
	PurgeCache(ctx context.Context) (int64, error)
}

// ResultCache is the subset of the Redis cache the service needs.
type ResultCache interface {
	GetOrLoad(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) (redis.Source, error)
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
}

// Config holds the service settings.
type Config struct {
	Defaults Defaults
	// MaxAtoms rejects larger requests; zero disables the limit.
	MaxAtoms int
	CacheTTL time.Duration
}

// serviceImpl implements the Service interface.
type serviceImpl struct {
	cfg     Config
	cache   ResultCache
	metrics *prometheus.AppMetrics
	logger  logging.Logger
}

// NewService creates the annotation service.  cache and metrics may be nil.
func NewService(cfg Config, cache ResultCache, metrics *prometheus.AppMetrics, logger logging.Logger) Service {
	if metrics == nil {
		metrics = prometheus.NewNoopAppMetrics()
	}
	return &serviceImpl{
		cfg:     cfg,
		cache:   cache,
		metrics: metrics,
		logger:  logger.Named("depict"),
	}
}

// graph is the decoded request: exactly one of mol and rxn is set.
type graph struct {
	mol *molecule.Molecule
	rxn *reaction.Reaction
}

func (g *graph) kind() string {
	if g.rxn != nil {
		return "reaction"
	}
	return "molecule"
}

func (g *graph) molecules() []*molecule.Molecule {
	if g.mol != nil {
		return []*molecule.Molecule{g.mol}
	}
	var mols []*molecule.Molecule
	g.rxn.Each(func(_ reaction.Role, _ int, m *molecule.Molecule) { mols = append(mols, m) })
	return mols
}

func decode(req *dto.AnnotateRequest) (*graph, error) {
	if req.Molecule != nil {
		m, err := ToMolecule(req.Molecule, "molecule")
		if err != nil {
			return nil, err
		}
		return &graph{mol: m}, nil
	}
	r, err := ToReaction(req.Reaction)
	if err != nil {
		return nil, err
	}
	return &graph{rxn: r}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Annotate
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) Annotate(ctx context.Context, req *dto.AnnotateRequest) (*dto.AnnotateResponse, error) {
	start := time.Now()
	if req == nil {
		return nil, errors.New(errors.ErrCodeEmptyRequest, errors.DefaultMessageForCode(errors.ErrCodeEmptyRequest))
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	atoms := req.AtomCount()
	if s.cfg.MaxAtoms > 0 && atoms > s.cfg.MaxAtoms {
		return nil, errors.New(errors.ErrCodeGraphTooLarge, errors.DefaultMessageForCode(errors.ErrCodeGraphTooLarge)).
			WithDetail(fmt.Sprintf("atoms=%d limit=%d", atoms, s.cfg.MaxAtoms))
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	log := s.logger.With(logging.String("request_id", requestID))

	g, err := decode(req)
	if err != nil {
		prometheus.RecordAnnotation(s.metrics, kindOf(req), atoms, time.Since(start), err)
		log.Warn("Rejected annotation request", logging.Err(err))
		return nil, err
	}
	opts := ResolveOptions(req.Options, s.cfg.Defaults)

	resp, cached, err := s.annotateCached(ctx, req, g, opts, log)
	prometheus.RecordAnnotation(s.metrics, g.kind(), atoms, time.Since(start), err)
	if err != nil {
		log.Error("Annotation failed", logging.String("kind", g.kind()), logging.Err(err))
		return nil, err
	}

	resp.RequestID = requestID
	resp.Stats.Cached = cached
	log.Info("Annotation completed",
		logging.String("kind", g.kind()),
		logging.Int("atoms", atoms),
		logging.Bool("cached", cached),
		logging.Duration("elapsed", time.Since(start)))
	return resp, nil
}

func kindOf(req *dto.AnnotateRequest) string {
	if req.Reaction != nil {
		return "reaction"
	}
	return "molecule"
}

// annotateCached serves the response from the result cache when possible.
// Cache failures degrade to an uncached run.
func (s *serviceImpl) annotateCached(ctx context.Context, req *dto.AnnotateRequest, g *graph, opts Options, log logging.Logger) (*dto.AnnotateResponse, bool, error) {
	if s.cache == nil {
		resp, err := s.run(ctx, g, opts, log)
		return resp, false, err
	}
	key, err := cacheKey(req, opts)
	if err != nil {
		log.Warn("Failed to build cache key", logging.Err(err))
		resp, err := s.run(ctx, g, opts, log)
		return resp, false, err
	}

	// Only a value read back from Redis counts as cached; a result shared
	// with a concurrent identical request was computed, not looked up.
	var out dto.AnnotateResponse
	src, err := s.cache.GetOrLoad(ctx, key, &out, s.cfg.CacheTTL, func(ctx context.Context) (interface{}, error) {
		return s.run(ctx, g, opts, log)
	})
	switch {
	case err == nil:
		hit := src == redis.SourceCache
		prometheus.RecordCacheAccess(s.metrics, "annotate", hit)
		return &out, hit, nil
	case src != redis.SourceCache && !errors.IsCode(err, errors.ErrCodeSerialization) && !errors.IsNotFound(err):
		// the pipeline itself failed, whether in this call or a shared one
		return nil, false, err
	case ctx.Err() != nil:
		return nil, false, errors.Wrap(ctx.Err(), errors.ErrCodeTimeout, "annotation cancelled")
	}

	log.Warn("Result cache unavailable, annotating uncached", logging.Err(err))
	prometheus.RecordError(s.metrics, "cache", string(errors.GetCode(err)), "warning")
	resp, err := s.run(ctx, g, opts, log)
	return resp, false, err
}

// cacheKey hashes the graph together with the resolved options so that two
// requests differing only in defaulted options share an entry.
func cacheKey(req *dto.AnnotateRequest, opts Options) (string, error) {
	canonical := struct {
		Molecule *dto.MoleculeDTO    `json:"molecule,omitempty"`
		Reaction *dto.ReactionDTO    `json:"reaction,omitempty"`
		Options  dto.ResolvedOptions `json:"options"`
	}{req.Molecule, req.Reaction, opts.DTO()}
	data, err := json.Marshal(canonical)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode cache key")
	}
	sum := sha256.Sum256(data)
	return cachePrefix + hex.EncodeToString(sum[:]), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Pipeline
// ─────────────────────────────────────────────────────────────────────────────

// run applies the passes in order: valence, hydrogens, hydrates, then for
// reactions abbreviation sync and changed-atom marking.  The context is
// checked between passes.
func (s *serviceImpl) run(ctx context.Context, g *graph, opts Options, log logging.Logger) (*dto.AnnotateResponse, error) {
	start := time.Now()
	mols := g.molecules()
	stats := dto.AnnotateStats{}
	for _, m := range mols {
		stats.Atoms += m.AtomCount()
	}
	var marks []reaction.AtomMark

	passes := []struct {
		name    string
		enabled bool
		fn      func()
	}{
		{PassValence, true, func() {
			for _, m := range mols {
				radicals, arrows := radicalCount(m), arrowCount(m)
				molecule.PerceiveRadicals(m)
				molecule.PerceiveDativeBonds(m, opts.Dative)
				stats.Radicals += radicalCount(m) - radicals
				stats.DativeBonds += arrowCount(m) - arrows
			}
		}},
		{PassHydrogens, opts.HydrogenDisplay != molecule.HydrogenProvided, func() {
			for _, m := range mols {
				before := hydrogenCount(m)
				molecule.SetHydrogenDisplay(m, opts.HydrogenDisplay)
				if delta := hydrogenCount(m) - before; delta > 0 {
					stats.HydrogensAdded += delta
				} else {
					stats.HydrogensRemoved -= delta
				}
			}
		}},
		{PassHydrates, opts.Hydrates, func() {
			for _, m := range mols {
				before := sgroupFootprint(m)
				molecule.ContractHydrates(m)
				if sgroupFootprint(m) != before {
					stats.HydrateGroups++
				}
			}
		}},
		{PassSync, g.rxn != nil && opts.Sync, func() {
			stats.AbbreviationsSynced = reaction.SyncAbbreviations(g.rxn)
		}},
		{PassChanges, g.rxn != nil && opts.MapChanges, func() {
			marks, _ = reaction.MarkChangedAtoms(g.rxn, 0)
		}},
	}

	for _, p := range passes {
		if !p.enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeTimeout, "annotation cancelled").WithDetail("before pass " + p.name)
		}
		passStart := time.Now()
		p.fn()
		elapsed := time.Since(passStart)
		prometheus.RecordPass(s.metrics, p.name, elapsed)
		log.Debug("Pass completed", logging.String("pass", p.name), logging.Duration("elapsed", elapsed))
	}

	prometheus.RecordChanges(s.metrics, "radicals", stats.Radicals)
	prometheus.RecordChanges(s.metrics, "dative_bonds", stats.DativeBonds)
	prometheus.RecordChanges(s.metrics, "hydrogens_added", stats.HydrogensAdded)
	prometheus.RecordChanges(s.metrics, "hydrogens_removed", stats.HydrogensRemoved)
	prometheus.RecordChanges(s.metrics, "hydrate_groups", stats.HydrateGroups)
	prometheus.RecordChanges(s.metrics, "abbreviations_synced", stats.AbbreviationsSynced)

	resp := &dto.AnnotateResponse{Options: opts.DTO()}
	if g.rxn != nil {
		if opts.Arrow != "" {
			g.rxn.Direction = reaction.ParseArrow(opts.Arrow)
		}
		r := FromReaction(g.rxn)
		resp.Reaction = &r
		resp.Highlights = FromMarks(marks)
	} else {
		m := FromMolecule(g.mol)
		resp.Molecule = &m
	}
	stats.ElapsedMs = time.Since(start).Milliseconds()
	resp.Stats = stats
	return resp, nil
}

func radicalCount(m *molecule.Molecule) int {
	n := 0
	for i := 0; i < m.AtomCount(); i++ {
		n += m.Atom(i).Radicals
	}
	return n
}

func arrowCount(m *molecule.Molecule) int {
	n := 0
	for i := 0; i < m.BondCount(); i++ {
		if m.Bond(i).Display.IsArrow() {
			n++
		}
	}
	return n
}

func hydrogenCount(m *molecule.Molecule) int {
	n := 0
	for i := 0; i < m.AtomCount(); i++ {
		if m.Atom(i).IsHydrogen() {
			n++
		}
	}
	return n
}

// sgroupFootprint changes whenever a hydrate contraction adds a group or
// extends an existing one.
func sgroupFootprint(m *molecule.Molecule) [2]int {
	members := 0
	for _, sg := range m.Sgroups {
		members += len(sg.Atoms)
	}
	return [2]int{len(m.Sgroups), members}
}

// ─────────────────────────────────────────────────────────────────────────────
// Options and cache maintenance
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) Options(_ context.Context) *dto.OptionsResponse {
	resp := &dto.OptionsResponse{
		Arrows:   append([]string(nil), arrowCodes...),
		Defaults: ResolveOptions(dto.AnnotateOptions{}, s.cfg.Defaults).DTO(),
	}
	for _, h := range molecule.HydrogenDisplays() {
		resp.HydrogenDisplays = append(resp.HydrogenDisplays, h.String())
	}
	for _, p := range []molecule.DativePolicy{molecule.DativeAlways, molecule.DativeMetals, molecule.DativeNever} {
		resp.DativePolicies = append(resp.DativePolicies, p.String())
	}
	return resp
}

func (s *serviceImpl) PurgeCache(ctx context.Context) (int64, error) {
	if s.cache == nil {
		return 0, errors.New(errors.ErrCodeServiceUnavailable, "result cache is disabled")
	}
	n, err := s.cache.DeleteByPrefix(ctx, cachePrefix)
	if err != nil {
		return n, errors.Wrap(err, errors.ErrCodeCacheError, "failed to purge result cache")
	}
	s.logger.Info("Result cache purged", logging.Int64("keys", n))
	return n, nil
}

//Personal.AI order the ending
