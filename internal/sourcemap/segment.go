package sourcemap

import "sort"

// segment is one decoded entry from a "mappings" string (component C). An
// arity-1 segment (hasOriginal == false) is a hole: the generated column
// exists but carries no mapping. Arity 4 adds source/line/column; arity 5
// also adds a name.
type segment struct {
	genCol      int
	hasOriginal bool
	sourceIdx   int
	origLine    int // 0-based, as stored on the wire (see composer.go for the +1 public conversion)
	origCol     int
	hasName     bool
	nameIdx     int
}

// segmentLines is a line-indexed container: segmentLines[i] holds the
// segments for generated line i+1 (1-based), sorted ascending by genCol.
type segmentLines [][]segment

// floor returns the segment with the greatest genCol <= col on the given
// 1-based generated line, or false if the line is out of range, empty, or
// every segment on it starts after col.
func (lines segmentLines) floor(line, col int) (segment, bool) {
	idx := line - 1
	if idx < 0 || idx >= len(lines) {
		return segment{}, false
	}
	segs := lines[idx]
	i := sort.Search(len(segs), func(i int) bool { return segs[i].genCol > col }) - 1
	if i < 0 {
		return segment{}, false
	}
	return segs[i], true
}

// decodeMappings parses the segment-stream grammar of §4.A/§6: lines
// separated by ';', segments within a line separated by ',', all fields past
// genCol delta-encoded and carried across the whole map except genCol, which
// resets every line (§9 "running state in VLQ decode"). numSources/numNames
// bound the source/name index fields so a corrupt map can't index out of
// range of the tables the caller will look them up in.
func decodeMappings(mappings string, numSources, numNames int) (segmentLines, error) {
	var lines segmentLines
	var cur []segment

	genCol := 0
	sourceIdx, origLine, origCol, nameIdx := 0, 0, 0, 0
	needSort := false
	pos := 0
	n := len(mappings)

	for pos < n {
		switch mappings[pos] {
		case ';':
			lines = append(lines, cur)
			cur = nil
			genCol = 0
			pos++
			continue
		case ',':
			pos++
			continue
		}

		startCol := genCol
		delta, next, err := decodeVLQ(mappings, pos)
		if err != nil {
			return nil, err
		}
		pos = next
		genCol += delta
		if genCol < 0 {
			return nil, malformedVLQ("generated column went negative at offset %d", pos)
		}
		if genCol < startCol {
			// Out-of-order columns would break floor()'s binary search; esbuild
			// handles this the same way (see sourcemap_parser.go's needSort),
			// sorting the line stably afterward rather than treating it as a
			// decode error.
			needSort = true
		}

		if pos >= n || mappings[pos] == ',' || mappings[pos] == ';' {
			cur = append(cur, segment{genCol: genCol})
			continue
		}

		sourceDelta, next, err := decodeVLQ(mappings, pos)
		if err != nil {
			return nil, err
		}
		pos = next
		sourceIdx += sourceDelta
		if sourceIdx < 0 || sourceIdx >= numSources {
			return nil, malformedVLQ("source index %d at offset %d is out of range", sourceIdx, pos)
		}

		lineDelta, next, err := decodeVLQ(mappings, pos)
		if err != nil {
			return nil, err
		}
		pos = next
		origLine += lineDelta
		if origLine < 0 {
			return nil, malformedVLQ("original line went negative at offset %d", pos)
		}

		colDelta, next, err := decodeVLQ(mappings, pos)
		if err != nil {
			return nil, err
		}
		pos = next
		origCol += colDelta
		if origCol < 0 {
			return nil, malformedVLQ("original column went negative at offset %d", pos)
		}

		seg := segment{
			genCol:      genCol,
			hasOriginal: true,
			sourceIdx:   sourceIdx,
			origLine:    origLine,
			origCol:     origCol,
		}

		if pos < n && mappings[pos] != ',' && mappings[pos] != ';' {
			nameDelta, next, err := decodeVLQ(mappings, pos)
			if err != nil {
				return nil, err
			}
			pos = next
			nameIdx += nameDelta
			if nameIdx < 0 || nameIdx >= numNames {
				return nil, malformedVLQ("name index %d at offset %d is out of range", nameIdx, pos)
			}
			seg.hasName = true
			seg.nameIdx = nameIdx
		}

		if pos < n && mappings[pos] != ',' && mappings[pos] != ';' {
			return nil, malformedVLQ("segment at offset %d has more than 5 fields", pos)
		}

		cur = append(cur, seg)
	}
	lines = append(lines, cur)

	if needSort {
		for i := range lines {
			sortSegmentsStable(lines[i])
		}
	}

	return lines, nil
}

// sortSegmentsStable restores ascending genCol order within one line. A
// stable sort is required: segments that share a genCol must keep their
// original relative order (the later one logically overrides the earlier one
// at that exact column under floor() semantics).
func sortSegmentsStable(segs []segment) {
	sort.SliceStable(segs, func(i, j int) bool { return segs[i].genCol < segs[j].genCol })
}
