package chiengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/hermod/engine"
)

func mustInsert(t *testing.T, b engine.Builder, pattern string, key engine.Key) {
	t.Helper()
	require.NoError(t, b.Insert(engine.MustParseTemplate(pattern), key))
}

func mustCompile(t *testing.T, b engine.Builder) engine.Matcher {
	t.Helper()
	m, err := b.Compile()
	require.NoError(t, err)
	return m
}

func TestMatcherLookup(t *testing.T) {
	b := New().NewBuilder()
	mustInsert(t, b, "/", 0)
	mustInsert(t, b, "/users/all", 1)
	mustInsert(t, b, "/users/{id}", 2)
	mustInsert(t, b, "/users/{id}/posts/{post}", 3)
	mustInsert(t, b, "/files/{*path}", 4)
	mustInsert(t, b, "/users/", 5)
	m := mustCompile(t, b)

	tests := []struct {
		name       string
		path       string
		wantKey    engine.Key
		wantParams engine.Params
		wantMiss   bool
	}{
		{name: "root", path: "/", wantKey: 0},
		{name: "static", path: "/users/all", wantKey: 1},
		{name: "capture", path: "/users/42", wantKey: 2, wantParams: engine.Params{{Name: "id", Value: "42"}}},
		{
			name:    "multiple captures in declaration order",
			path:    "/users/42/posts/first",
			wantKey: 3,
			wantParams: engine.Params{
				{Name: "id", Value: "42"},
				{Name: "post", Value: "first"},
			},
		},
		{
			name:       "wildcard spans remaining segments",
			path:       "/files/a/b/c.txt",
			wantKey:    4,
			wantParams: engine.Params{{Name: "path", Value: "a/b/c.txt"}},
		},
		{name: "trailing slash is a distinct path", path: "/users/", wantKey: 5},
		{name: "no match", path: "/nothing/here", wantMiss: true},
		{name: "missing segment", path: "/users/42/posts", wantMiss: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, ok := m.Lookup(tt.path)
			if tt.wantMiss {
				assert.False(t, ok)
				return
			}

			require.True(t, ok)
			assert.Equal(t, tt.wantKey, match.Key)
			assert.Equal(t, tt.wantParams, match.Params)
		})
	}
}

func TestMatcherSpecificity(t *testing.T) {
	b := New().NewBuilder()
	mustInsert(t, b, "/users/all", 1)
	mustInsert(t, b, "/users/{id}", 2)
	mustInsert(t, b, "/{*rest}", 3)
	m := mustCompile(t, b)

	tests := []struct {
		name    string
		path    string
		wantKey engine.Key
	}{
		{name: "literal beats capture", path: "/users/all", wantKey: 1},
		{name: "capture beats wildcard", path: "/users/42", wantKey: 2},
		{name: "wildcard takes the rest", path: "/other/thing", wantKey: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, ok := m.Lookup(tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.wantKey, match.Key)
		})
	}
}

func TestMatcherKeepsValuesEscaped(t *testing.T) {
	b := New().NewBuilder()
	mustInsert(t, b, "/echo/{word}", 1)
	m := mustCompile(t, b)

	match, ok := m.Lookup("/echo/hello%20world")
	require.True(t, ok)
	assert.Equal(t, engine.Params{{Name: "word", Value: "hello%20world"}}, match.Params)
}

func TestMatcherNamesCapturesPerTemplate(t *testing.T) {
	b := New().NewBuilder()
	mustInsert(t, b, "/api/{version}/users", 1)
	mustInsert(t, b, "/api/{tag}/files", 2)
	m := mustCompile(t, b)

	match, ok := m.Lookup("/api/v2/users")
	require.True(t, ok)
	assert.Equal(t, engine.Key(1), match.Key)
	assert.Equal(t, engine.Params{{Name: "version", Value: "v2"}}, match.Params)

	match, ok = m.Lookup("/api/beta/files")
	require.True(t, ok)
	assert.Equal(t, engine.Key(2), match.Key)
	assert.Equal(t, engine.Params{{Name: "tag", Value: "beta"}}, match.Params)
}

func TestBuilderConflicts(t *testing.T) {
	tests := []struct {
		name     string
		first    string
		second   string
		conflict bool
	}{
		{name: "identical templates", first: "/users/{id}", second: "/users/{id}", conflict: true},
		{name: "renamed capture", first: "/users/{id}", second: "/users/{name}", conflict: true},
		{name: "renamed wildcard", first: "/files/{*a}", second: "/files/{*b}", conflict: true},
		{name: "identical statics", first: "/users/all", second: "/users/all", conflict: true},
		{name: "literal and capture coexist", first: "/users/all", second: "/users/{id}"},
		{name: "capture and wildcard coexist", first: "/files/{name}", second: "/files/{*path}"},
		{name: "distinct statics coexist", first: "/users", second: "/users/"},
		{name: "deeper path coexists with wildcard", first: "/files/{*path}", second: "/files/a/b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New().NewBuilder()
			mustInsert(t, b, tt.first, 1)

			err := b.Insert(engine.MustParseTemplate(tt.second), 2)
			if !tt.conflict {
				require.NoError(t, err)
				_, cerr := b.Compile()
				require.NoError(t, cerr)
				return
			}

			var conflict *engine.ConflictError
			require.ErrorAs(t, err, &conflict)
			assert.Equal(t, tt.second, conflict.Template)
			assert.Equal(t, tt.first, conflict.Existing)
		})
	}
}

func TestEmptyMatcher(t *testing.T) {
	m := mustCompile(t, New().NewBuilder())

	_, ok := m.Lookup("/anything")
	assert.False(t, ok)
}
