package topo

import "fmt"

// Builder turns one plan's annotations into a topology graph. It holds only
// immutable tables and a logger, so one Builder may serve concurrent Build
// calls.
type Builder struct {
	cats     *categories
	splitter *Splitter
	indexer  *Indexer
	analyzer *Analyzer
	metrics  *Metrics
	log      Logger
}

// NewBuilder wires the pipeline stages. A nil cfg selects DefaultConfig and a
// nil logger discards log output.
func NewBuilder(cfg *Config, logger Logger) *Builder {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = NopLogger{}
	}
	labels := NewLabelResolver(cfg)
	return &Builder{
		cats:     newCategories(cfg.Categories),
		splitter: NewSplitter(cfg, labels, logger),
		indexer:  NewIndexer(cfg, labels),
		analyzer: NewAnalyzer(cfg, logger),
		metrics:  NewMetrics(cfg),
		log:      logger,
	}
}

// Build validates in and runs split, containment, connectivity and metrics.
func (b *Builder) Build(in *PlanInput) (*Graph, error) {
	if err := ValidateInput(in); err != nil {
		return nil, fmt.Errorf("invalid plan input: %w", err)
	}

	walls := b.cats.partition(in.Structures).walls
	taken := make(map[string]bool, len(in.Spaces))
	for _, space := range in.Spaces {
		taken[space.ID.String()] = true
	}
	nodes := make([]Node, 0, len(in.Spaces))
	for _, space := range in.Spaces {
		for _, r := range b.split(space, in.OCR, walls) {
			if r.Strategy != SplitNone {
				r.ID = b.uniqueID(r.ID, taken)
			}
			nodes = append(nodes, b.indexer.NewNode(r, in.Objects, in.OCR, in.Structures))
		}
	}

	edges := b.analyzer.Connect(nodes, in.Structures)
	stats := b.metrics.Compute(in.ImageInfo, nodes)

	b.log.Debug("built topology graph",
		"image", in.ImageInfo.FileName,
		"nodes", len(nodes),
		"edges", len(edges),
		"structure_type", stats.StructureType)

	return &Graph{
		ImageInfo:  in.ImageInfo,
		Nodes:      nodes,
		Edges:      edges,
		Statistics: stats,
	}, nil
}

// split runs the splitter for one space. A panic leaves the space unsplit.
func (b *Builder) split(space Annotation, texts, walls []Annotation) (regions []SpaceRegion) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Warn("space split failed, keeping space whole", "space", space.ID, "err", r)
			regions = []SpaceRegion{wholeRegion(space)}
		}
	}()
	return b.splitter.Split(space, texts, walls)
}

// uniqueID reserves id for a split fragment. An id already held by an input
// space or an earlier fragment gets the first free numeric suffix.
func (b *Builder) uniqueID(id string, taken map[string]bool) string {
	out := id
	for k := 1; taken[out]; k++ {
		out = fmt.Sprintf("%s_%d", id, k)
	}
	if out != id {
		b.log.Warn("fragment id already in use, renamed", "id", id, "renamed", out)
	}
	taken[out] = true
	return out
}
