// Package graph turns row records into a deduplicated, referentially
// consistent node and edge set. It has no side effects.
package graph

import (
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pipeline-graph/engine/internal/models"
	"github.com/pipeline-graph/engine/internal/tabular"
	appErr "github.com/pipeline-graph/engine/pkg/errors"
)

// Column names understood by the builder. Any other column is kept in
// Node.Extra.
const (
	ColObject         = "object"
	ColDependsOn      = "depends_on"
	ColLabel          = "label"
	ColSchema         = "schema"
	ColServer         = "server"
	ColOwner          = "owner"
	ColCreationDate   = "creation_date"
	ColLastUpdate     = "last_update"
	ColCronExpression = "cron_expression"
	ColCalendarString = "calendar_string"
	ColPositionX      = "position_x"
	ColPositionY      = "position_y"
)

// DependencySeparator joins identifiers in the depends_on column.
const DependencySeparator = ";"

// maxIssues caps how many row-level issues a Result keeps for logging.
const maxIssues = 100

var knownColumns = map[string]struct{}{
	ColObject: {}, ColDependsOn: {}, ColLabel: {}, ColSchema: {}, ColServer: {},
	ColOwner: {}, ColCreationDate: {}, ColLastUpdate: {}, ColCronExpression: {},
	ColCalendarString: {}, ColPositionX: {}, ColPositionY: {},
}

// Stats counts what happened to the input.
type Stats struct {
	Rows           int `json:"rows"`
	SkippedRows    int `json:"skipped_rows"`
	MalformedRows  int `json:"malformed_rows"`
	DanglingEdges  int `json:"dangling_edges"`
	DuplicateEdges int `json:"duplicate_edges"`
}

// Issue is a row-level problem that did not stop the build.
type Issue struct {
	Line   int
	Code   appErr.Code
	Detail string
}

// Result is the candidate graph.
type Result struct {
	// Nodes in first-appearance order.
	Nodes []models.Node
	// Edges deduplicated, in first-appearance order; every source and
	// target is in Nodes.
	Edges []models.Edge
	// Seeds are layout coordinates supplied by the input, keyed by node id.
	Seeds  map[string]models.Position
	Stats  Stats
	Issues []Issue
}

// Builder builds graphs. The zero value uses time.Now.
type Builder struct {
	Now func() time.Time
}

// New returns a Builder using the wall clock.
func New() *Builder {
	return &Builder{Now: time.Now}
}

type candidate struct {
	line   int
	source string
	target string
}

// Build consumes rows once. Rows without an identifier and unreadable rows
// are skipped; edges whose source never appears as an identifier are dropped.
func (b *Builder) Build(rows iter.Seq2[tabular.Row, error]) *Result {
	now := time.Now()
	if b != nil && b.Now != nil {
		now = b.Now()
	}

	res := &Result{Seeds: map[string]models.Position{}}
	index := map[string]int{}
	var candidates []candidate

	for row, err := range rows {
		res.Stats.Rows++
		if err != nil {
			res.Stats.MalformedRows++
			res.issue(lineOf(row, err), appErr.CodeInvalidRow, err.Error())
			continue
		}

		id := row.Get(ColObject)
		if id == "" {
			res.Stats.SkippedRows++
			res.issue(row.Line, appErr.CodeInvalidRow, "missing "+ColObject)
			continue
		}
		if utf8.RuneCountInString(id) > models.MaxIDLength {
			res.Stats.SkippedRows++
			res.issue(row.Line, appErr.CodeInvalidRow, fmt.Sprintf("%s longer than %d characters", ColObject, models.MaxIDLength))
			continue
		}

		node := nodeFromRow(id, row, now)
		if i, ok := index[id]; ok {
			res.Nodes[i] = node
		} else {
			index[id] = len(res.Nodes)
			res.Nodes = append(res.Nodes, node)
		}

		if pos, ok := seedFromRow(row); ok {
			res.Seeds[id] = pos
		} else {
			delete(res.Seeds, id)
		}

		for _, dep := range strings.Split(row.Get(ColDependsOn), DependencySeparator) {
			dep = strings.TrimSpace(dep)
			if dep == "" {
				continue
			}
			candidates = append(candidates, candidate{line: row.Line, source: dep, target: id})
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, ok := index[c.source]; !ok {
			res.Stats.DanglingEdges++
			res.issue(c.line, appErr.CodeDanglingEdge, fmt.Sprintf("%s depends on unknown %q", c.target, c.source))
			continue
		}
		e := models.NewEdge(c.source, c.target)
		if _, dup := seen[e.ID]; dup {
			res.Stats.DuplicateEdges++
			continue
		}
		seen[e.ID] = struct{}{}
		res.Edges = append(res.Edges, e)
	}

	return res
}

func (r *Result) issue(line int, code appErr.Code, detail string) {
	if len(r.Issues) < maxIssues {
		r.Issues = append(r.Issues, Issue{Line: line, Code: code, Detail: detail})
	}
}

func nodeFromRow(id string, row tabular.Row, now time.Time) models.Node {
	label := row.Get(ColLabel)
	if label == "" {
		label = id
	}
	cronExpr := row.Get(ColCronExpression)

	n := models.Node{
		ID:             id,
		Label:          label,
		Schema:         row.Get(ColSchema),
		Server:         row.Get(ColServer),
		Owner:          row.Get(ColOwner),
		CreationDate:   row.Get(ColCreationDate),
		LastUpdate:     row.Get(ColLastUpdate),
		CronExpression: cronExpr,
		NextExecution:  NextExecution(cronExpr, now),
		CalendarString: row.Get(ColCalendarString),
	}

	for col, v := range row.Values {
		if _, known := knownColumns[col]; known || v == "" {
			continue
		}
		if n.Extra == nil {
			n.Extra = map[string]any{}
		}
		n.Extra[col] = v
	}
	return n
}

// seedFromRow reads position_x/position_y. A missing half defaults to 0; an
// unparseable or non-finite value discards the pair.
func seedFromRow(row tabular.Row) (models.Position, bool) {
	xs, ys := row.Get(ColPositionX), row.Get(ColPositionY)
	if xs == "" && ys == "" {
		return models.Position{}, false
	}
	x, okX := parseCoord(xs)
	y, okY := parseCoord(ys)
	if !okX || !okY {
		return models.Position{}, false
	}
	return models.Position{X: x, Y: y}, true
}

func parseCoord(s string) (float64, bool) {
	if s == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func lineOf(row tabular.Row, err error) int {
	if re, ok := err.(*tabular.RowError); ok {
		return re.Line
	}
	return row.Line
}
