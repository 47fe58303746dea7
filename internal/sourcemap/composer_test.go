package sourcemap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func mustParseFile(t *testing.T, path string) *Map {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	m, err := Parse(data)
	require.NoError(t, err)
	return m
}

// TestComposeFacebookSourcesPropagation is scenario 2: an indexed map whose
// single section carries x_facebook_sources, composed with a flat tail,
// yields the deepest source's channel unchanged in the output.
func TestComposeFacebookSourcesPropagation(t *testing.T) {
	indexed := &Map{Version: 3, Sections: []Section{{
		Offset: Offset{Line: 1, Column: 0}, // wire (0,0), already converted to 1-based
		Map: &Map{Version: 3, Flat: &FlatMap{
			Sources: []string{"src.js"},
			Names:   []string{"global"},
			Mappings: ";CACCA",
			XFacebookSources: [][]FacebookSourceItem{
				{{Names: []string{"<global>"}, Mappings: "AAA"}},
			},
		}},
	}}}
	tail := &Map{Version: 3, Flat: &FlatMap{
		Sources:  []string{"src-transformed.js"},
		Names:    []string{"gLoBAl"},
		Mappings: ";CACCA",
	}}

	composed, err := Compose([]*Map{indexed, tail})
	require.NoError(t, err)
	require.NotNil(t, composed.Flat)
	require.True(t, anyFacebookSource(composed.Flat.XFacebookSources))
	require.Equal(t, []string{"src.js"}, composed.Flat.Sources)
	require.Equal(t, [][]FacebookSourceItem{
		{{Names: []string{"<global>"}, Mappings: "AAA"}},
	}, composed.Flat.XFacebookSources)
}

// TestComposeHoleInFirstMap is scenario 3: composing through a chain where
// every resolvable tail position folds back to a single deeper source
// rewrites the sources/names tables to the deepest map's values and
// re-encodes origCol deltas accordingly, while the hole in the tail (",C,")
// survives untouched. It also exercises scenario 4 directly, since the
// hole would resolve successfully if queried against the first map alone.
func TestComposeHoleInFirstMap(t *testing.T) {
	m1 := &Map{Version: 3, Flat: &FlatMap{
		Sources:  []string{"a.js"},
		Names:    []string{"a"},
		Mappings: "AAACA,CAACA",
	}}
	m2 := &Map{Version: 3, Flat: &FlatMap{
		Sources:  []string{"b.js"},
		Names:    []string{"b"},
		Mappings: "AAAAA,C,CAAAA,CAACA",
	}}

	composed, err := Compose([]*Map{m1, m2})
	require.NoError(t, err)
	require.Equal(t, "AAACA,C,CAAAA,CAACA", composed.Flat.Mappings)
	require.Equal(t, []string{"a.js"}, composed.Flat.Sources)
	require.Equal(t, []string{"a"}, composed.Flat.Names)
	require.False(t, anyFacebookSource(composed.Flat.XFacebookSources))

	lines, err := decodeMappings(composed.Flat.Mappings, len(composed.Flat.Sources), len(composed.Flat.Names))
	require.NoError(t, err)
	require.Len(t, lines[0], 4)
	require.True(t, lines[0][0].hasOriginal)
	require.False(t, lines[0][1].hasOriginal, "the hole from the tail map must survive composition")
	require.True(t, lines[0][2].hasOriginal)
	require.True(t, lines[0][3].hasOriginal)
}

// TestComposeNameSurvivesMangling is scenario 6: a name introduced by an
// intermediate stage is discarded in favor of the original stage's name once
// folding reaches it.
func TestComposeNameSurvivesMangling(t *testing.T) {
	original := &Map{Version: 3, Flat: &FlatMap{
		Sources:  []string{"orig.js"},
		Names:    []string{"a"},
		Mappings: "AAAAA", // arity 5: name index 0 -> "a"
	}}
	mangled := &Map{Version: 3, Flat: &FlatMap{
		Sources:  []string{"orig.js"},
		Names:    []string{"x"},
		Mappings: "AAAAA", // the mangler's own map names this position "x"
	}}
	tail := &Map{Version: 3, Flat: &FlatMap{
		Sources:  []string{"out.js"},
		Names:    nil,
		Mappings: "AAAA", // arity 4: no name at all from the tail's own stage
	}}

	composed, err := Compose([]*Map{original, mangled, tail})
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, composed.Flat.Names)
}

// TestComposeFixtureParity is scenario 5: curated (mapN, mapN+1) -> merged
// pairs, checked with deep-equality against a testdata fixture.
func TestComposeFixtureParity(t *testing.T) {
	cases := []struct {
		name   string
		inputs []string
		merged string
	}{
		{"basic", []string{"1.json", "2.json"}, "merged_1_2.json"},
		{"all-holes-tail", []string{"ignore_1.json", "ignore_2.json"}, "merged_ignore.json"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			maps := make([]*Map, len(c.inputs))
			for i, name := range c.inputs {
				maps[i] = mustParseFile(t, filepath.Join("testdata", name))
			}
			want := mustParseFile(t, filepath.Join("testdata", c.merged))

			got, err := Compose(maps)
			require.NoError(t, err)

			if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("composed map mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestComposeRejectsEmptyInput(t *testing.T) {
	_, err := Compose(nil)
	require.Error(t, err)
	require.True(t, err.(*Error).Is(ErrInvalidMap))
}

func TestComposeRejectsIndexedTail(t *testing.T) {
	indexed := &Map{Version: 3, Sections: []Section{{
		Offset: Offset{Line: 1, Column: 0},
		Map:    &Map{Version: 3, Flat: &FlatMap{Sources: []string{"a.js"}, Names: []string{"a"}, Mappings: "AAAA"}},
	}}}
	_, err := Compose([]*Map{indexed})
	require.Error(t, err)
	require.True(t, err.(*Error).Is(ErrUnsupportedComposition))
}

func TestComposeRejectsMultiSourceIntermediateMap(t *testing.T) {
	deepest := &Map{Version: 3, Flat: &FlatMap{Sources: []string{"a.js"}, Names: []string{"a"}, Mappings: "AAAA"}}
	intermediate := &Map{Version: 3, Flat: &FlatMap{Sources: []string{"a.js", "b.js"}, Names: []string{"a"}, Mappings: "AAAA"}}
	tail := &Map{Version: 3, Flat: &FlatMap{Sources: []string{"out.js"}, Names: []string{"a"}, Mappings: "AAAA"}}

	_, err := Compose([]*Map{deepest, intermediate, tail})
	require.Error(t, err)
	require.True(t, err.(*Error).Is(ErrUnsupportedComposition))
}

// TestComposeSingleMapEqualsIdentityFold checks the degenerate one-map
// compose path (no consumers to fold through): the tail's own data should
// pass through unchanged, including its own x_facebook_sources channel.
func TestComposeSingleMapEqualsIdentityFold(t *testing.T) {
	m := &Map{Version: 3, Flat: &FlatMap{
		Sources:  []string{"a.js"},
		Names:    []string{"a"},
		Mappings: "AAAAA",
		XFacebookSources: [][]FacebookSourceItem{
			{{Names: []string{"a"}, Mappings: "A"}},
		},
	}}
	composed, err := Compose([]*Map{m})
	require.NoError(t, err)
	require.Equal(t, m.Flat.Mappings, composed.Flat.Mappings)
	require.Equal(t, m.Flat.Sources, composed.Flat.Sources)
	require.Equal(t, m.Flat.Names, composed.Flat.Names)
	require.Equal(t, m.Flat.XFacebookSources, composed.Flat.XFacebookSources)
}
