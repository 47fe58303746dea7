package sourcemap

import "strings"

// internTable assigns each distinct string the next free index, in
// first-seen order, and reports whether a given value was new — the
// "id-and-was-new in one operation" shape §9's design notes ask for so the
// composer never has to look a value up twice.
type internTable struct {
	values []string
	index  map[string]int
}

func (t *internTable) intern(v string) (idx int, wasNew bool) {
	if i, ok := t.index[v]; ok {
		return i, false
	}
	if t.index == nil {
		t.index = make(map[string]int)
	}
	idx = len(t.values)
	t.values = append(t.values, v)
	t.index[v] = idx
	return idx, true
}

// mappingOut is one resolved, emittable segment: the generated position from
// the tail map, and the original position the fold chain produced for it.
type mappingOut struct {
	genLine     int
	genCol      int
	source      string
	origLine    int // 1-based
	origCol     int
	name        string
	hasName     bool
	facebook    []FacebookSourceItem
	hasFacebook bool
}

// outputBuilder accumulates a freshly re-encoded "mappings" string plus fresh
// sources[]/names[]/x_facebook_sources[] tables as the Composer walks the
// tail map's segments in generated order.
type outputBuilder struct {
	sources internTable
	names   internTable
	xfb     [][]FacebookSourceItem

	mappings strings.Builder
	curLine  int // 1-based; which generated line the builder is positioned on

	lineHasSegment bool // whether curLine has emitted anything yet (need a comma)

	// Running absolute state. genCol resets every line; the rest reset only
	// once per output map, never per line (§9).
	prevGenCol    int
	prevSourceIdx int
	prevOrigLine  int // 0-based, wire convention
	prevOrigCol   int
	prevNameIdx   int
}

func newOutputBuilder() *outputBuilder {
	return &outputBuilder{curLine: 1}
}

func (b *outputBuilder) advanceTo(genLine int) {
	for b.curLine < genLine {
		b.mappings.WriteByte(';')
		b.curLine++
		b.prevGenCol = 0
		b.lineHasSegment = false
	}
}

// addHole emits a bare (arity-1) segment: a generated column with no
// original position, the wire form of a hole (§3, §4.E step 6).
func (b *outputBuilder) addHole(genLine, genCol int) {
	b.advanceTo(genLine)
	if b.lineHasSegment {
		b.mappings.WriteByte(',')
	}
	b.writeVLQ(genCol - b.prevGenCol)
	b.prevGenCol = genCol
	b.lineHasSegment = true
}

// addMapping emits an arity-4 or arity-5 segment and interns its source (and
// name, if present) into the output's fresh tables.
func (b *outputBuilder) addMapping(m mappingOut) {
	b.advanceTo(m.genLine)
	if b.lineHasSegment {
		b.mappings.WriteByte(',')
	}

	sourceIdx, wasNew := b.sources.intern(m.source)
	if wasNew {
		b.xfb = append(b.xfb, nil)
	}
	if m.hasFacebook {
		b.xfb[sourceIdx] = m.facebook
	}

	wireOrigLine := m.origLine - 1 // public contract is 1-based, wire is 0-based

	b.writeVLQ(m.genCol - b.prevGenCol)
	b.writeVLQ(sourceIdx - b.prevSourceIdx)
	b.writeVLQ(wireOrigLine - b.prevOrigLine)
	b.writeVLQ(m.origCol - b.prevOrigCol)

	b.prevGenCol = m.genCol
	b.prevSourceIdx = sourceIdx
	b.prevOrigLine = wireOrigLine
	b.prevOrigCol = m.origCol

	if m.hasName {
		nameIdx, _ := b.names.intern(m.name)
		b.writeVLQ(nameIdx - b.prevNameIdx)
		b.prevNameIdx = nameIdx
	}

	b.lineHasSegment = true
}

func (b *outputBuilder) writeVLQ(value int) {
	var tmp [8]byte
	b.mappings.Write(appendVLQ(tmp[:0], value))
}

// finish produces the composed flat Map, omitting x_facebook_sources
// entirely if every slot ended up absent (§4.E).
func (b *outputBuilder) finish() *Map {
	fm := &FlatMap{
		Sources:  append([]string(nil), b.sources.values...),
		Names:    append([]string(nil), b.names.values...),
		Mappings: b.mappings.String(),
	}
	if anyFacebookSource(b.xfb) {
		fm.XFacebookSources = b.xfb
	}
	return &Map{Version: 3, Flat: fm}
}
