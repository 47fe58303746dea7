package sourcemap

import "encoding/json"

// Map is the parsed representation of a source map (§3): either a FlatMap
// (Sections is nil) or an indexed map (Sections is non-nil, Flat is nil).
//
// encoding/json is used for the JSON boundary rather than a third-party
// library: no repo in the retrieved pack imports one directly for its own
// JSON handling (see SPEC_FULL.md's DOMAIN STACK section), and source maps
// are small, flat JSON documents where stdlib's allocation profile is fine.
type Map struct {
	Version  int
	Flat     *FlatMap
	Sections []Section
}

// FlatMap holds a map whose mappings live in a single "mappings" string.
type FlatMap struct {
	Sources          []string
	SourcesContent   []*string
	Names            []string
	Mappings         string
	SourceRoot       string
	XFacebookSources [][]FacebookSourceItem // parallel to Sources; nil entry means null
}

// Section is one entry of an indexed map's "sections" array (§3/§6).
type Section struct {
	Offset Offset
	Map    *Map
}

// FacebookSourceItem is one metadata item of an x_facebook_sources entry
// (§3): a parallel name/mappings channel carried, never interpreted, by the
// composer.
type FacebookSourceItem struct {
	Names    []string `json:"names"`
	Mappings string   `json:"mappings"`
}

// rawMap mirrors the on-the-wire JSON shape; Map.UnmarshalJSON/MarshalJSON
// translate between this and the flat-or-indexed domain type.
type rawMap struct {
	Version          *int              `json:"version"`
	SourceRoot       string            `json:"sourceRoot,omitempty"`
	Sources          []string          `json:"sources,omitempty"`
	SourcesContent   []*string         `json:"sourcesContent,omitempty"`
	Names            []string          `json:"names,omitempty"`
	Mappings         *string           `json:"mappings,omitempty"`
	XFacebookSources []json.RawMessage `json:"x_facebook_sources,omitempty"`
	Sections         []rawSection      `json:"sections,omitempty"`
}

type rawSection struct {
	Offset rawOffset `json:"offset"`
	Map    *Map      `json:"map"`
}

type rawOffset struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Parse decodes a v3 source map from JSON text (component F).
func Parse(data []byte) (*Map, error) {
	m := &Map{}
	if err := json.Unmarshal(data, m); err != nil {
		if _, ok := err.(*Error); ok {
			return nil, err
		}
		return nil, invalidMap("invalid JSON: %v", err)
	}
	return m, nil
}

// Encode serializes m back to JSON text.
func Encode(m *Map) ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalJSON implements component F's parse side: validate version,
// distinguish flat from indexed by presence of "sections", reject a map that
// carries both shapes at once.
func (m *Map) UnmarshalJSON(data []byte) error {
	var raw rawMap
	if err := json.Unmarshal(data, &raw); err != nil {
		return invalidMap("invalid JSON: %v", err)
	}

	if raw.Version == nil || *raw.Version != 3 {
		return invalidMap(`missing or unsupported "version" (want 3)`)
	}

	hasMappings := raw.Mappings != nil
	hasSections := len(raw.Sections) > 0
	if hasMappings && raw.Sections != nil {
		// An explicit "sections" key, even an empty array, is a second shape.
		return invalidMap(`map has both "mappings" and "sections"`)
	}
	if !hasMappings && !hasSections {
		return invalidMap(`map has neither "mappings" nor "sections"`)
	}

	if hasSections {
		sections := make([]Section, len(raw.Sections))
		for i, rs := range raw.Sections {
			if rs.Map == nil {
				return invalidMap("section %d has no nested map", i)
			}
			sections[i] = Section{
				// The wire offset.line is 0-based (the same convention real v3
				// indexed maps use); +1 puts it in the same 1-based space as
				// GeneratedPos.Line so §4.D's "effectiveGenLine = offset.line +
				// innerGenLine - 1" formula can be applied with both operands
				// already 1-based.
				Offset: Offset{Line: rs.Offset.Line + 1, Column: rs.Offset.Column},
				Map:    rs.Map,
			}
		}
		m.Version = 3
		m.Flat = nil
		m.Sections = sections
		return nil
	}

	fm := &FlatMap{
		Sources:        raw.Sources,
		SourcesContent: raw.SourcesContent,
		Names:          raw.Names,
		Mappings:       *raw.Mappings,
		SourceRoot:     raw.SourceRoot,
	}

	if len(raw.XFacebookSources) > 0 {
		fm.XFacebookSources = make([][]FacebookSourceItem, len(raw.XFacebookSources))
		for i, entry := range raw.XFacebookSources {
			if len(entry) == 0 || string(entry) == "null" {
				continue
			}
			var items []FacebookSourceItem
			if err := json.Unmarshal(entry, &items); err != nil {
				return invalidMap("invalid x_facebook_sources entry %d: %v", i, err)
			}
			fm.XFacebookSources[i] = items
		}
	}

	m.Version = 3
	m.Flat = fm
	m.Sections = nil
	return nil
}

// MarshalJSON implements component F's serialize side.
func (m Map) MarshalJSON() ([]byte, error) {
	if len(m.Sections) > 0 {
		sections := make([]rawSection, len(m.Sections))
		for i, s := range m.Sections {
			sections[i] = rawSection{
				Offset: rawOffset{Line: s.Offset.Line - 1, Column: s.Offset.Column},
				Map:    s.Map,
			}
		}
		return json.Marshal(struct {
			Version  int          `json:"version"`
			Sections []rawSection `json:"sections"`
		}{Version: 3, Sections: sections})
	}

	if m.Flat == nil {
		return nil, invalidMap("map has neither flat data nor sections")
	}

	raw := rawMap{
		Version:        intPtr(3),
		SourceRoot:     m.Flat.SourceRoot,
		Sources:        m.Flat.Sources,
		SourcesContent: m.Flat.SourcesContent,
		Names:          m.Flat.Names,
		Mappings:       &m.Flat.Mappings,
	}

	if anyFacebookSource(m.Flat.XFacebookSources) {
		raw.XFacebookSources = make([]json.RawMessage, len(m.Flat.XFacebookSources))
		for i, items := range m.Flat.XFacebookSources {
			if items == nil {
				raw.XFacebookSources[i] = json.RawMessage("null")
				continue
			}
			b, err := json.Marshal(items)
			if err != nil {
				return nil, err
			}
			raw.XFacebookSources[i] = b
		}
	}

	return json.Marshal(raw)
}

// anyFacebookSource reports whether the channel has any non-null entry; the
// serializer omits the field entirely only when every entry is absent (§4.E).
func anyFacebookSource(entries [][]FacebookSourceItem) bool {
	for _, e := range entries {
		if e != nil {
			return true
		}
	}
	return false
}

func intPtr(v int) *int { return &v }
