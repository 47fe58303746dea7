package sourcemap

// Compose folds N source maps, each describing one transformation stage
// (M0 ran first, Mₙ₋₁ ran last), into a single flat map from Mₙ₋₁'s
// generated code straight back to M0's original sources (§4.E).
//
// Grounded on esbuild's ChunkBuilder.appendMapping, which does exactly this
// fold but for a single optional input map ("if the input file had a source
// map, map all the way back to the original", sourcemap.go lines ~789-827):
// this generalizes that one-level remap into an N-map chain, and generalizes
// esbuild's namesMap/quotedNames first-seen-order interning into the
// two-table interner below.
func Compose(maps []*Map) (*Map, error) {
	if len(maps) == 0 {
		return nil, invalidMap("compose requires at least one map")
	}

	tail := maps[len(maps)-1]
	if tail.Flat == nil {
		return nil, unsupportedComposition("the tail map must be flat")
	}

	consumers := make([]consumerInternal, len(maps)-1)
	for k := 0; k < len(maps)-1; k++ {
		mk := maps[k]
		// Decision recorded in DESIGN.md: only M0 (the deepest map) may carry
		// more than one source or be indexed; every map between M0 and the tail
		// is assumed to be a single-file transform stage's flat output, per
		// §4.E's precondition text ("only the deepest map carries multiple
		// original sources and downstream stages consume single intermediate
		// files").
		if k > 0 {
			if mk.Flat == nil {
				return nil, unsupportedComposition("intermediate map %d is not a flat map", k)
			}
			if len(mk.Flat.Sources) > 1 {
				return nil, unsupportedComposition("intermediate map %d has more than one source", k)
			}
		}
		c, err := newConsumerInternal(mk)
		if err != nil {
			return nil, err
		}
		consumers[k] = c
	}

	tailLines, err := decodeMappings(tail.Flat.Mappings, len(tail.Flat.Sources), len(tail.Flat.Names))
	if err != nil {
		return nil, err
	}

	b := newOutputBuilder()
	for lineIdx, segs := range tailLines {
		genLine := lineIdx + 1
		for _, seg := range segs {
			if !seg.hasOriginal {
				// A hole in the tail map is a hole in the output regardless of
				// what any earlier stage would have mapped that column to (§4.E
				// step 6, §8 property 4).
				b.addHole(genLine, seg.genCol)
				continue
			}

			tailName, tailHasName := "", false
			if seg.hasName {
				tailName, tailHasName = tail.Flat.Names[seg.nameIdx], true
			}

			resolved := resolution{OriginalPosition: OriginalPosition{
				Source: tail.Flat.Sources[seg.sourceIdx],
				Line:   seg.origLine + 1,
				Column: seg.origCol,
			}}
			if seg.sourceIdx < len(tail.Flat.XFacebookSources) && tail.Flat.XFacebookSources[seg.sourceIdx] != nil {
				// Only relevant when there is nothing to fold through (len(consumers)
				// == 0): otherwise the loop below always runs at least once and its
				// last iteration's result — the deepest consumer's own channel —
				// takes over, per §4.E's "channel belongs to the originating source".
				resolved.Facebook = tail.Flat.XFacebookSources[seg.sourceIdx]
				resolved.HasFacebook = true
			}
			// §4.E step 4: the name that survives folding is the deepest
			// non-null one found — the outer-stage symbol name, from
			// whichever map sits closest to the original source, overrides
			// a mangled name a later stage attached at the same position.
			// A shallower name (the tail's own, or an intermediate stage's)
			// only survives when nothing deeper provides one.
			chosenName, chosenHasName := tailName, tailHasName

			ok := true
			for k := len(consumers) - 1; k >= 0; k-- {
				query := OriginalPos{Line: resolved.Line, Column: resolved.Column}.asGenerated()
				next, found := consumers[k].resolve(query)
				if !found {
					ok = false
					break
				}
				resolved = next
				if next.HasName {
					chosenName, chosenHasName = next.Name, true
				}
			}
			if !ok {
				b.addHole(genLine, seg.genCol)
				continue
			}

			b.addMapping(mappingOut{
				genLine:     genLine,
				genCol:      seg.genCol,
				source:      resolved.Source,
				origLine:    resolved.Line,
				origCol:     resolved.Column,
				name:        chosenName,
				hasName:     chosenHasName,
				facebook:    resolved.Facebook,
				hasFacebook: resolved.HasFacebook,
			})
		}
	}

	return b.finish(), nil
}
