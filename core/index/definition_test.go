package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsrpcx/redis-omx-node/core/schema"
)

func TestDefinition_Args(t *testing.T) {
	tests := []struct {
		name     string
		options  schema.Options
		expected []string
	}{
		{
			name:    "defaults",
			options: schema.Options{},
			expected: []string{
				"song:index", "ON", "JSON", "PREFIX", "1", "song:",
				"SCHEMA", "$.title", "AS", "title", "TEXT",
			},
		},
		{
			name:    "stop words off",
			options: schema.Options{Prefix: "music:song", UseStopWords: schema.StopWordsOff, DataStructure: schema.DataStructureHash},
			expected: []string{
				"music:song:index", "ON", "HASH", "PREFIX", "1", "music:song:",
				"STOPWORDS", "0", "SCHEMA", "title", "TEXT",
			},
		},
		{
			name: "custom stop words",
			options: schema.Options{
				IndexName:    "songs",
				UseStopWords: schema.StopWordsCustom,
				StopWords:    []string{"the", "a"},
			},
			expected: []string{
				"songs", "ON", "JSON", "PREFIX", "1", "song:",
				"STOPWORDS", "2", "the", "a", "SCHEMA", "$.title", "AS", "title", "TEXT",
			},
		},
		{
			name:    "custom with no words",
			options: schema.Options{UseStopWords: schema.StopWordsCustom},
			expected: []string{
				"song:index", "ON", "JSON", "PREFIX", "1", "song:",
				"STOPWORDS", "0", "SCHEMA", "$.title", "AS", "title", "TEXT",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := schema.NewBuilder("song").Text("title").WithOptions(tt.options).Build()
			require.NoError(t, err)

			def, err := NewCompiler(nil, nil).Define(s)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, def.Args())
		})
	}
}

func TestDefinition_Define(t *testing.T) {
	s, err := schema.NewBuilder("song").
		String("genre", schema.Sortable()).
		WithOptions(schema.Options{IndexHashName: "song:fingerprint"}).
		Build()
	require.NoError(t, err)

	def, err := NewCompiler(nil, nil).Define(s)
	require.NoError(t, err)
	assert.Equal(t, "song:index", def.IndexName)
	assert.Equal(t, "song:fingerprint", def.IndexHashName)
	assert.Equal(t, "song", def.Prefix)
	assert.Equal(t, []string{}, def.StopWords)
	assert.Len(t, def.Warnings, 1)
}

func TestDefinition_DefineWrapsCompileErrors(t *testing.T) {
	s, err := schema.NewBuilder("song").Object("album", "album").Build()
	require.NoError(t, err)

	_, err = NewCompiler(schema.NewSchemaRegistry(), nil).Define(s)
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.ErrUnregisteredEntity))
	assert.Contains(t, err.Error(), "failed to compile index for song")
}

func TestDefinition_Hash(t *testing.T) {
	build := func(opts ...schema.FieldOption) *Definition {
		s, err := schema.NewBuilder("song").
			Text("title").
			Number("year", opts...).
			Build()
		require.NoError(t, err)
		def, err := NewCompiler(nil, nil).Define(s)
		require.NoError(t, err)
		return def
	}

	first, err := build().Hash()
	require.NoError(t, err)
	again, err := build().Hash()
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Len(t, first, 28)

	changed, err := build(schema.Sortable()).Hash()
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)
}
