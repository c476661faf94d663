package services

import (
	"context"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/pipeline-graph/engine/internal/graph"
	"github.com/pipeline-graph/engine/internal/metrics"
	"github.com/pipeline-graph/engine/internal/models"
	"github.com/pipeline-graph/engine/internal/repository"
	"github.com/pipeline-graph/engine/internal/tabular"
	appErr "github.com/pipeline-graph/engine/pkg/errors"
	"github.com/pipeline-graph/engine/pkg/logger"
	"github.com/pipeline-graph/engine/pkg/utils"
)

// DefaultStoreTimeout bounds a single store call when Options leaves it unset.
const DefaultStoreTimeout = 5 * time.Second

// GraphService ingests, serves, lays out and resets the pipeline graph.
type GraphService interface {
	Upload(ctx context.Context, raw []byte) (*UploadResult, error)
	GetGraph(ctx context.Context) (*Graph, error)
	GetPosition(ctx context.Context, id string) (models.Position, error)
	SetPosition(ctx context.Context, update PositionUpdate) error
	Reset(ctx context.Context) error
	Stats(ctx context.Context) (*Stats, error)
}

// UploadResult summarizes a stored upload.
type UploadResult struct {
	NodeCount      int    `json:"node_count"`
	EdgeCount      int    `json:"edge_count"`
	SkippedRows    int    `json:"skipped_rows"`
	MalformedRows  int    `json:"malformed_rows"`
	DroppedEdges   int    `json:"dropped_edges"`
	DuplicateEdges int    `json:"duplicate_edges"`
	Checksum       string `json:"checksum"`
}

// Graph is the stored graph with layout attached to each node.
type Graph struct {
	Nodes []models.Node `json:"nodes"`
	Edges []models.Edge `json:"edges"`
}

type PositionUpdate struct {
	ID string
	X  float64
	Y  float64
}

type Stats struct {
	Nodes     int64 `json:"nodes"`
	Edges     int64 `json:"edges"`
	Positions int64 `json:"positions"`
}

// Options configures a GraphService.
type Options struct {
	StoreTimeout time.Duration
	// Now is the ingest clock used for next_execution. Defaults to time.Now.
	Now func() time.Time
	// Comma is the upload field delimiter. Zero means ','.
	Comma rune
}

type graphService struct {
	graphs       repository.GraphRepository
	positions    repository.PositionRepository
	builder      *graph.Builder
	parseOpts    []tabular.Option
	storeTimeout time.Duration
	tracer       trace.Tracer
}

func NewGraphService(graphs repository.GraphRepository, positions repository.PositionRepository, opts Options) GraphService {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	b := graph.New()
	if opts.Now != nil {
		b.Now = opts.Now
	}
	var parseOpts []tabular.Option
	if opts.Comma != 0 {
		parseOpts = append(parseOpts, tabular.WithComma(opts.Comma))
	}
	return &graphService{
		graphs:       graphs,
		positions:    positions,
		builder:      b,
		parseOpts:    parseOpts,
		storeTimeout: opts.StoreTimeout,
		tracer:       otel.Tracer("github.com/pipeline-graph/engine/internal/services"),
	}
}

// Ensure interfaces are satisfied at compile time
var _ GraphService = (*graphService)(nil)

// Upload parses raw delimited text, builds the graph and replaces the stored
// one. A bad header fails before the store is touched.
func (s *graphService) Upload(ctx context.Context, raw []byte) (res *UploadResult, err error) {
	ctx, span := s.tracer.Start(ctx, "GraphService.Upload", trace.WithAttributes(attribute.Int("upload.bytes", len(raw))))
	defer func() { endSpan(span, err) }()
	start := time.Now()

	tbl, err := tabular.Parse(raw, s.parseOpts...)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("malformed").Inc()
		return nil, err
	}
	if !tbl.Has(graph.ColObject) {
		metrics.UploadsTotal.WithLabelValues("malformed").Inc()
		return nil, appErr.Newf(appErr.CodeMalformedInput, "header has no %q column", graph.ColObject)
	}

	built := s.builder.Build(tbl.Rows())
	checksum := utils.Checksum(raw)

	err = s.withStore(ctx, "replace_graph", func(ctx context.Context) error {
		return s.graphs.ReplaceGraph(ctx, built.Nodes, built.Edges, built.Seeds)
	})
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("store_error").Inc()
		logger.L().Error("store graph failed", zap.String("checksum", checksum), zap.Error(err))
		return nil, err
	}

	st := built.Stats
	for _, is := range built.Issues {
		logger.L().Debug("row issue", zap.Int("line", is.Line), zap.String("code", string(is.Code)), zap.String("detail", is.Detail))
	}
	metrics.UploadsTotal.WithLabelValues("ok").Inc()
	metrics.UploadDuration.Observe(time.Since(start).Seconds())
	metrics.IngestRowsTotal.WithLabelValues("accepted").Add(float64(st.Rows - st.SkippedRows - st.MalformedRows))
	metrics.IngestRowsTotal.WithLabelValues("skipped").Add(float64(st.SkippedRows))
	metrics.IngestRowsTotal.WithLabelValues("malformed").Add(float64(st.MalformedRows))
	metrics.EdgesDroppedTotal.WithLabelValues("dangling").Add(float64(st.DanglingEdges))
	metrics.EdgesDroppedTotal.WithLabelValues("duplicate").Add(float64(st.DuplicateEdges))
	metrics.GraphNodes.Set(float64(len(built.Nodes)))
	metrics.GraphEdges.Set(float64(len(built.Edges)))

	span.SetAttributes(
		attribute.Int("graph.nodes", len(built.Nodes)),
		attribute.Int("graph.edges", len(built.Edges)),
	)
	logger.L().Info("graph uploaded",
		zap.Int("nodes", len(built.Nodes)),
		zap.Int("edges", len(built.Edges)),
		zap.Int("skipped_rows", st.SkippedRows),
		zap.Int("malformed_rows", st.MalformedRows),
		zap.Int("dangling_edges", st.DanglingEdges),
		zap.Int("duplicate_edges", st.DuplicateEdges),
		zap.String("checksum", checksum),
	)

	return &UploadResult{
		NodeCount:      len(built.Nodes),
		EdgeCount:      len(built.Edges),
		SkippedRows:    st.SkippedRows,
		MalformedRows:  st.MalformedRows,
		DroppedEdges:   st.DanglingEdges,
		DuplicateEdges: st.DuplicateEdges,
		Checksum:       checksum,
	}, nil
}

// GetGraph returns every node with its layout (0,0 when none is stored) and
// every edge.
func (s *graphService) GetGraph(ctx context.Context) (g *Graph, err error) {
	ctx, span := s.tracer.Start(ctx, "GraphService.GetGraph")
	defer func() { endSpan(span, err) }()

	var nodes []models.Node
	var edges []models.Edge
	var layout map[string]models.Position
	err = s.withStore(ctx, "load_graph", func(ctx context.Context) error {
		var err error
		if nodes, edges, err = s.graphs.LoadGraph(ctx); err != nil {
			return err
		}
		layout, err = s.positions.All(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	for i := range nodes {
		p := layout[nodes[i].ID]
		nodes[i].X, nodes[i].Y = p.X, p.Y
	}
	if nodes == nil {
		nodes = []models.Node{}
	}
	if edges == nil {
		edges = []models.Edge{}
	}
	span.SetAttributes(attribute.Int("graph.nodes", len(nodes)), attribute.Int("graph.edges", len(edges)))
	return &Graph{Nodes: nodes, Edges: edges}, nil
}

// GetPosition returns the layout of an existing node, (0,0) when none is
// stored.
func (s *graphService) GetPosition(ctx context.Context, id string) (pos models.Position, err error) {
	ctx, span := s.tracer.Start(ctx, "GraphService.GetPosition", trace.WithAttributes(attribute.String("node.id", id)))
	defer func() { endSpan(span, err) }()

	id = strings.TrimSpace(id)
	if id == "" {
		return models.Position{}, appErr.New(appErr.CodeInvalid, "id is required")
	}

	err = s.withStore(ctx, "get_position", func(ctx context.Context) error {
		ok, err := s.graphs.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return appErr.New(appErr.CodeNotFound, "node not found").WithMeta("id", id)
		}
		pos, err = s.positions.Get(ctx, id)
		return err
	})
	if err != nil {
		return models.Position{}, err
	}
	return pos, nil
}

// SetPosition stores the layout of an existing node.
func (s *graphService) SetPosition(ctx context.Context, update PositionUpdate) (err error) {
	ctx, span := s.tracer.Start(ctx, "GraphService.SetPosition", trace.WithAttributes(attribute.String("node.id", update.ID)))
	defer func() { endSpan(span, err) }()

	id := strings.TrimSpace(update.ID)
	if id == "" {
		return appErr.New(appErr.CodeInvalid, "id is required")
	}
	if !finite(update.X) || !finite(update.Y) {
		return appErr.New(appErr.CodeInvalid, "position must be finite").WithMeta("id", id)
	}

	err = s.withStore(ctx, "upsert_position", func(ctx context.Context) error {
		return s.positions.Upsert(ctx, id, update.X, update.Y)
	})
	if err != nil {
		return err
	}
	logger.L().Debug("position updated", zap.String("id", id), zap.Float64("x", update.X), zap.Float64("y", update.Y))
	return nil
}

// Reset deletes the graph and all layout.
func (s *graphService) Reset(ctx context.Context) (err error) {
	ctx, span := s.tracer.Start(ctx, "GraphService.Reset")
	defer func() { endSpan(span, err) }()

	err = s.withStore(ctx, "reset", func(ctx context.Context) error {
		return s.graphs.Reset(ctx, true)
	})
	if err != nil {
		logger.L().Error("reset failed", zap.Error(err))
		return err
	}
	metrics.GraphNodes.Set(0)
	metrics.GraphEdges.Set(0)
	logger.L().Info("graph reset")
	return nil
}

func (s *graphService) Stats(ctx context.Context) (st *Stats, err error) {
	ctx, span := s.tracer.Start(ctx, "GraphService.Stats")
	defer func() { endSpan(span, err) }()

	st = &Stats{}
	err = s.withStore(ctx, "stats", func(ctx context.Context) error {
		var err error
		if st.Nodes, st.Edges, err = s.graphs.Counts(ctx); err != nil {
			return err
		}
		st.Positions, err = s.positions.Count(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// withStore runs fn under the store timeout. A deadline hit by fn is reported
// as unavailable.
func (s *graphService) withStore(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	err := fn(ctx)
	if err != nil && appErr.CodeOf(err) == appErr.CodeUnknown {
		err = appErr.Wrap(err, appErr.CodeUnavailable, op+" failed")
	}
	metrics.ObserveStore(op, err)
	return err
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(appErr.CodeOf(err)))
	}
	span.End()
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
