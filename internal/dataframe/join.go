package dataframe

import (
	"slices"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/paveg/tabula/internal/config"
	"github.com/paveg/tabula/internal/dtype"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/parallel"
	"github.com/paveg/tabula/internal/series"
	"github.com/paveg/tabula/internal/validation"
)

// JoinType selects which unmatched rows a join keeps.
type JoinType string

const (
	InnerJoin JoinType = "inner"
	LeftJoin  JoinType = "left"
	OuterJoin JoinType = "outer"
)

// JoinOptions configures a join. On names key columns present on both
// sides and takes precedence over the LeftOn/RightOn pair.
type JoinOptions struct {
	On      []string
	LeftOn  []string
	RightOn []string
	How     JoinType
	// Suffix is appended to right column names that collide with a left
	// column. Defaults to the configured join suffix.
	Suffix string
	// JoinNulls lets null keys match each other. By default a row with a
	// null key never matches.
	JoinNulls bool
}

// resolve returns the key columns of both sides and whether they are
// coalesced into a single output column.
func (o JoinOptions) resolve() (left, right []string, coalesce bool, err error) {
	switch {
	case len(o.On) > 0:
		return o.On, o.On, true, nil
	case len(o.LeftOn) == 0 && len(o.RightOn) == 0:
		return nil, nil, false, dferrors.NewConfigError("Join", "expected on or both left_on and right_on")
	case len(o.LeftOn) == 0 || len(o.RightOn) == 0:
		return nil, nil, false, dferrors.NewConfigError("Join", "left_on and right_on must be given together")
	}
	return o.LeftOn, o.RightOn, false, nil
}

const hashIndexLoadFactor = 0.75

// hashIndex is a multi-map from encoded key to the rows holding it. Rows
// within a key keep insertion order.
type hashIndex struct {
	buckets [][]hashEntry
	size    int
}

type hashEntry struct {
	key  string
	rows []int
}

func newHashIndex(estimatedSize int) *hashIndex {
	return &hashIndex{buckets: make([][]hashEntry, nextPowerOfTwo(estimatedSize*4/3+1))}
}

func (h *hashIndex) bucket(key string) int {
	return int(xxhash.Sum64String(key) & uint64(len(h.buckets)-1)) //nolint:gosec // masked to bucket count
}

func (h *hashIndex) put(key string, row int) {
	b := h.bucket(key)
	for i := range h.buckets[b] {
		if h.buckets[b][i].key == key {
			h.buckets[b][i].rows = append(h.buckets[b][i].rows, row)
			return
		}
	}
	h.buckets[b] = append(h.buckets[b], hashEntry{key: key, rows: []int{row}})
	h.size++
	if float64(h.size) > float64(len(h.buckets))*hashIndexLoadFactor {
		h.resize()
	}
}

func (h *hashIndex) get(key string) []int {
	for _, entry := range h.buckets[h.bucket(key)] {
		if entry.key == key {
			return entry.rows
		}
	}
	return nil
}

// resize doubles the bucket count and rehashes all entries.
func (h *hashIndex) resize() {
	old := h.buckets
	h.buckets = make([][]hashEntry, len(old)*2)
	for _, bucket := range old {
		for _, entry := range bucket {
			b := h.bucket(entry.key)
			h.buckets[b] = append(h.buckets[b], entry)
		}
	}
}

// nextPowerOfTwo returns the next power of two >= n.
func nextPowerOfTwo(n int) int {
	power := 1
	for power < n {
		power <<= 1
	}
	return power
}

// joinKeys holds the encoded key of every row of one side. skip marks rows
// whose key cannot match.
type joinKeys struct {
	keys []string
	skip []bool
}

func buildIndex(side joinKeys) *hashIndex {
	index := newHashIndex(len(side.keys))
	for r, key := range side.keys {
		if !side.skip[r] {
			index.put(key, r)
		}
	}
	return index
}

// joinPairs are matched row positions; -1 stands for a missing row.
type joinPairs struct {
	probe, build []int
}

// probeIndex emits a pair for every match of each probe row in row order.
// With keepUnmatched, a probe row without match is paired with -1.
func probeIndex(index *hashIndex, side joinKeys, keepUnmatched bool) joinPairs {
	probeRange := func(r parallel.Range) joinPairs {
		var out joinPairs
		for row := r.Start; row < r.End; row++ {
			var matches []int
			if !side.skip[row] {
				matches = index.get(side.keys[row])
			}
			if len(matches) == 0 && keepUnmatched {
				out.probe = append(out.probe, row)
				out.build = append(out.build, -1)
			}
			for _, m := range matches {
				out.probe = append(out.probe, row)
				out.build = append(out.build, m)
			}
		}
		return out
	}

	n := len(side.keys)
	cfg := config.GetGlobalConfig()
	if !cfg.ShouldParallelize(n, config.OperationConfig{}) {
		return probeRange(parallel.Range{Start: 0, End: n})
	}
	pool := parallel.NewWorkerPoolFromConfig(cfg)
	defer pool.Close()
	var out joinPairs
	for _, part := range parallel.ProcessChunks(pool, n, cfg.ChunkSize, probeRange) {
		out.probe = append(out.probe, part.probe...)
		out.build = append(out.build, part.build...)
	}
	return out
}

// castKeys casts each key pair to its common type. The returned series are
// owned by the caller.
func castKeys(left, right []*series.Series) (lc, rc []*series.Series, err error) {
	for i := range left {
		dt, err := dtype.Promote(left[i].DataType(), right[i].DataType())
		if err != nil {
			releaseAll(lc)
			releaseAll(rc)
			return nil, nil, dferrors.NewTypeMismatchError("Join", left[i].Name(),
				"cannot join %s with %s", left[i].DataType(), right[i].DataType())
		}
		l, err := left[i].Cast(dt, false)
		if err != nil {
			releaseAll(lc)
			releaseAll(rc)
			return nil, nil, err
		}
		r, err := right[i].Cast(dt, false)
		if err != nil {
			l.Release()
			releaseAll(lc)
			releaseAll(rc)
			return nil, nil, err
		}
		lc = append(lc, l)
		rc = append(rc, r)
	}
	return lc, rc, nil
}

func encodeKeys(cols []*series.Series, n int, joinNulls bool) joinKeys {
	side := joinKeys{keys: rowKeys(cols, n), skip: make([]bool, n)}
	if joinNulls {
		return side
	}
	for r := range n {
		side.skip[r] = slices.ContainsFunc(cols, func(c *series.Series) bool { return c.IsNullAt(r) })
	}
	return side
}

// Join combines df with right on equal key values.
//
// Inner and left joins follow the row order of df, with the matches of one
// row in the order of right. An outer join then appends every right row
// that matched nothing, with the left columns null. For On joins the key
// columns are coalesced into one column; for LeftOn/RightOn joins both are
// kept. Right columns whose name is already taken get Suffix appended.
func (df *DataFrame) Join(right *DataFrame, opts JoinOptions) (*DataFrame, error) {
	leftOn, rightOn, coalesce, err := opts.resolve()
	if err != nil {
		return nil, err
	}
	if err := validation.NewJoinKeysValidator("Join", df, leftOn, right, rightOn).Validate(); err != nil {
		return nil, err
	}
	how := opts.How
	switch how {
	case "":
		how = InnerJoin
	case InnerJoin, LeftJoin, OuterJoin:
	default:
		return nil, dferrors.NewConfigError("Join", "unknown join type %q", how)
	}
	suffix := opts.Suffix
	if suffix == "" {
		suffix = config.GetGlobalConfig().JoinSuffix
	}

	leftKeyCols := make([]*series.Series, len(leftOn))
	rightKeyCols := make([]*series.Series, len(rightOn))
	for i := range leftOn {
		leftKeyCols[i] = df.columns[leftOn[i]]
		rightKeyCols[i] = right.columns[rightOn[i]]
	}
	lk, rk, err := castKeys(leftKeyCols, rightKeyCols)
	if err != nil {
		return nil, err
	}
	defer releaseAll(lk)
	defer releaseAll(rk)

	leftSide := encodeKeys(lk, df.Len(), opts.JoinNulls)
	rightSide := encodeKeys(rk, right.Len(), opts.JoinNulls)

	var leftIdx, rightIdx []int
	if how == InnerJoin && df.Len() < right.Len() {
		// Build on the smaller left side, then restore left-major order.
		pairs := probeIndex(buildIndex(leftSide), rightSide, false)
		order := identity(len(pairs.probe))
		slices.SortStableFunc(order, func(a, b int) int {
			return pairs.build[a] - pairs.build[b]
		})
		leftIdx = make([]int, len(order))
		rightIdx = make([]int, len(order))
		for i, o := range order {
			leftIdx[i] = pairs.build[o]
			rightIdx[i] = pairs.probe[o]
		}
	} else {
		pairs := probeIndex(buildIndex(rightSide), leftSide, how != InnerJoin)
		leftIdx, rightIdx = pairs.probe, pairs.build
	}

	if how == OuterJoin {
		matched := make([]bool, right.Len())
		for _, r := range rightIdx {
			if r >= 0 {
				matched[r] = true
			}
		}
		for r, ok := range matched {
			if !ok {
				leftIdx = append(leftIdx, -1)
				rightIdx = append(rightIdx, r)
			}
		}
	}

	return df.assembleJoin(right, joinLayout{
		leftIdx:  leftIdx,
		rightIdx: rightIdx,
		leftOn:   leftOn,
		rightOn:  rightOn,
		lk:       lk,
		rk:       rk,
		coalesce: coalesce,
		suffix:   suffix,
	})
}

type joinLayout struct {
	leftIdx, rightIdx []int
	leftOn, rightOn   []string
	lk, rk            []*series.Series
	coalesce          bool
	suffix            string
}

func (df *DataFrame) assembleJoin(right *DataFrame, l joinLayout) (*DataFrame, error) {
	out := make([]*series.Series, 0, df.Width()+right.Width())
	fail := func(err error) (*DataFrame, error) {
		releaseAll(out)
		return nil, err
	}

	for _, col := range df.ordered() {
		k := slices.Index(l.leftOn, col.Name())
		if !l.coalesce || k < 0 {
			out = append(out, col.TakeIndices(l.leftIdx))
			continue
		}
		key, err := coalesceKey(l.lk[k].TakeIndices(l.leftIdx), l.rk[k].TakeIndices(l.rightIdx), l.leftIdx)
		if err != nil {
			return fail(err)
		}
		key.SetName(col.Name())
		out = append(out, key)
	}

	taken := make(map[string]bool, cap(out))
	for _, col := range out {
		taken[col.Name()] = true
	}
	for _, col := range right.ordered() {
		if l.coalesce && slices.Contains(l.rightOn, col.Name()) {
			continue
		}
		rc := col.TakeIndices(l.rightIdx)
		if taken[rc.Name()] {
			rc.SetName(rc.Name() + l.suffix)
		}
		taken[rc.Name()] = true
		out = append(out, rc)
	}

	if err := validation.ValidateColumnNames("Join", seriesNames(out)...); err != nil {
		return fail(err)
	}
	return df.derive(out), nil
}

// coalesceKey merges the left and right key columns of a join, taking the
// right value for rows that exist only on the right. Both inputs are
// consumed.
func coalesceKey(left, right *series.Series, leftIdx []int) (*series.Series, error) {
	if !slices.Contains(leftIdx, -1) {
		right.Release()
		return left, nil
	}
	defer left.Release()
	defer right.Release()
	present := make([]bool, len(leftIdx))
	for i, r := range leftIdx {
		present[i] = r >= 0
	}
	mask := series.New("", present, left.Allocator())
	defer mask.Release()
	return left.ZipWith(mask, right)
}

func seriesNames(cols []*series.Series) []string {
	out := make([]string, len(cols))
	for i, col := range cols {
		out[i] = col.Name()
	}
	return out
}
