package sourcemap

import "sort"

// OriginalPosition is the public result of an original-position query
// (component D's public contract): { source, line, column, name } or
// unmapped. Line is 1-based, Column is 0-based.
type OriginalPosition struct {
	Source  string
	Line    int
	Column  int
	Name    string
	HasName bool
}

// Consumer answers originalPositionFor queries against one parsed map,
// flat or indexed (§4.D). Consumers are immutable after construction and
// safe for concurrent use (§5).
type Consumer interface {
	OriginalPositionFor(pos GeneratedPos) (OriginalPosition, bool)
}

// resolution is the richer, unexported result consumerInternal.resolve
// returns: everything OriginalPosition carries, plus the x_facebook_sources
// metadata (if any) attached to the resolved source. The Composer needs this
// extra channel; ordinary callers of the public Consumer interface don't, so
// it stays private to the package (see composer.go).
type resolution struct {
	OriginalPosition
	Facebook    []FacebookSourceItem
	HasFacebook bool
}

type consumerInternal interface {
	resolve(pos GeneratedPos) (resolution, bool)
}

// NewConsumer builds a Consumer from a parsed map, dispatching to a flat or
// indexed implementation per §4.D's construction rules.
func NewConsumer(m *Map) (Consumer, error) {
	ci, err := newConsumerInternal(m)
	if err != nil {
		return nil, err
	}
	return publicConsumer{ci}, nil
}

func newConsumerInternal(m *Map) (consumerInternal, error) {
	if m == nil {
		return nil, invalidMap("nil map")
	}
	if len(m.Sections) > 0 {
		return newIndexedConsumer(m)
	}
	if m.Flat == nil {
		return nil, invalidMap(`map has neither "mappings" nor "sections"`)
	}
	return newFlatConsumer(m.Flat)
}

type publicConsumer struct{ inner consumerInternal }

func (p publicConsumer) OriginalPositionFor(pos GeneratedPos) (OriginalPosition, bool) {
	r, ok := p.inner.resolve(pos)
	if !ok {
		return OriginalPosition{}, false
	}
	return r.OriginalPosition, true
}

// flatConsumer answers queries against a single decoded "mappings" string
// (§4.D algorithm, "flat map"). Grounded on esbuild's SourceMap.Find binary
// search, generalized from one global slice to a per-line container so the
// floor lookup and the line-break handling line up with §4.C's container
// model.
type flatConsumer struct {
	sources []string
	names   []string
	xfb     [][]FacebookSourceItem
	lines   segmentLines
}

func newFlatConsumer(fm *FlatMap) (*flatConsumer, error) {
	lines, err := decodeMappings(fm.Mappings, len(fm.Sources), len(fm.Names))
	if err != nil {
		return nil, err
	}
	return &flatConsumer{
		sources: fm.Sources,
		names:   fm.Names,
		xfb:     fm.XFacebookSources,
		lines:   lines,
	}, nil
}

func (c *flatConsumer) resolve(pos GeneratedPos) (resolution, bool) {
	seg, ok := c.lines.floor(pos.Line, pos.Column)
	if !ok || !seg.hasOriginal {
		return resolution{}, false
	}

	r := resolution{OriginalPosition: OriginalPosition{
		Source: c.sources[seg.sourceIdx],
		Line:   seg.origLine + 1, // wire value is 0-based; public contract is 1-based
		Column: seg.origCol,
	}}
	if seg.hasName {
		r.Name = c.names[seg.nameIdx]
		r.HasName = true
	}
	if seg.sourceIdx < len(c.xfb) && c.xfb[seg.sourceIdx] != nil {
		r.Facebook = c.xfb[seg.sourceIdx]
		r.HasFacebook = true
	}
	return r, true
}

// indexedConsumer answers queries against a map built of offset-positioned
// sections (§3/§4.D "indexed map"), each with its own nested Consumer. No
// example in the retrieved pack consumes indexed maps — esbuild's own parser
// explicitly rejects "sections" with a warning (see
// internal/js_parser/sourcemap_parser.go's "sections" case) — so this is
// built directly from the spec's offset-rebasing formulas.
type indexedConsumer struct {
	offsets   []Offset
	consumers []consumerInternal
}

func newIndexedConsumer(m *Map) (*indexedConsumer, error) {
	ic := &indexedConsumer{
		offsets:   make([]Offset, len(m.Sections)),
		consumers: make([]consumerInternal, len(m.Sections)),
	}
	for i, s := range m.Sections {
		inner, err := newConsumerInternal(s.Map)
		if err != nil {
			return nil, err
		}
		ic.offsets[i] = s.Offset
		ic.consumers[i] = inner
	}
	return ic, nil
}

func (c *indexedConsumer) resolve(pos GeneratedPos) (resolution, bool) {
	// Find the last section whose offset is <= pos (§4.D, §9's open-question
	// decision on duplicate offsets — see DESIGN.md). Sections are required to
	// be in non-decreasing offset order, so "offset > pos" is monotonic over
	// the slice and sort.Search applies.
	j := sort.Search(len(c.offsets), func(i int) bool {
		return !c.offsets[i].lessOrEqual(pos)
	})
	if j == 0 {
		return resolution{}, false
	}
	idx := j - 1

	offset := c.offsets[idx]
	localLine := pos.Line - offset.Line + 1
	var localCol int
	if localLine == 1 {
		localCol = pos.Column - offset.Column
	} else {
		localCol = pos.Column
	}
	if localLine < 1 || localCol < 0 {
		return resolution{}, false
	}

	return c.consumers[idx].resolve(GeneratedPos{Line: localLine, Column: localCol})
}
