package sourcemap

// Position arithmetic (component B). Generated and original coordinates share
// the same (line, column) shape but live in different spaces — the spec's §9
// design note calls for distinct types so the compiler catches a mismatch
// that a bare pair of ints would let slip through undetected. esbuild itself
// doesn't go this far (its Mapping struct uses bare int32 fields throughout),
// so this one piece is built from the spec text rather than from the
// teacher's code.

// GeneratedPos is a position in generated (output) code. Line is 1-based,
// Column is 0-based, matching §3's G = (line: u32 ≥ 1, col: u32 ≥ 0).
type GeneratedPos struct {
	Line   int
	Column int
}

// Less reports whether p sorts strictly before o in (line, column) order.
func (p GeneratedPos) Less(o GeneratedPos) bool {
	return p.Line < o.Line || (p.Line == o.Line && p.Column < o.Column)
}

// OriginalPos is a position in the source a transformation was given, before
// that transformation's output is considered. Line is 1-based, Column is
// 0-based, matching §3's O = {..., line: u32 ≥ 1, col: u32 ≥ 0, ...}.
type OriginalPos struct {
	Line   int
	Column int
}

// asGenerated is the explicit, named conversion the Composer uses when it
// re-queries an earlier consumer: the original position produced by stage k
// is exactly the generated position to look up in stage k-1's consumer. The
// cast is spelled out rather than done implicitly so the two spaces are never
// silently conflated at a call site.
func (p OriginalPos) asGenerated() GeneratedPos {
	return GeneratedPos{Line: p.Line, Column: p.Column}
}

// Offset locates where an indexed map's section begins, in the same
// coordinate space as GeneratedPos (§3: "sections are in non-decreasing
// offset order").
type Offset struct {
	Line   int
	Column int
}

// lessOrEqual reports whether the offset is at or before g in (line, column)
// order — the comparison §4.D's indexed dispatch ("the section whose offset
// is the greatest ≤ G") needs.
func (o Offset) lessOrEqual(g GeneratedPos) bool {
	return o.Line < g.Line || (o.Line == g.Line && o.Column <= g.Column)
}
