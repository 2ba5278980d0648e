package schema

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// IDStrategy generates entity identifiers.
type IDStrategy func() string

// Options configures naming and storage for a Schema. Zero values select the defaults.
type Options struct {
	// Prefix comes before the id in every key. Defaults to the entity identifier.
	Prefix string

	// IndexName is the RediSearch index name. Defaults to "<prefix>:index".
	IndexName string

	// IndexHashName stores the hash of the current index definition.
	// Defaults to "<prefix>:index:hash".
	IndexHashName string

	// DataStructure defaults to JSON.
	DataStructure DataStructure

	// IDStrategy defaults to random UUIDs.
	IDStrategy IDStrategy

	// UseStopWords defaults to DEFAULT.
	UseStopWords StopWordOptions

	// StopWords is only used when UseStopWords is CUSTOM.
	StopWords []string
}

// withDefaults fills every unset option for the given entity.
func (o Options) withDefaults(entity string) Options {
	if o.Prefix == "" {
		o.Prefix = entity
	}
	if o.IndexName == "" {
		o.IndexName = o.Prefix + ":index"
	}
	if o.IndexHashName == "" {
		o.IndexHashName = o.Prefix + ":index:hash"
	}
	if o.DataStructure == "" {
		o.DataStructure = DataStructureJSON
	}
	if o.IDStrategy == nil {
		o.IDStrategy = uuid.NewString
	}
	if o.UseStopWords == "" {
		o.UseStopWords = StopWordsDefault
	}
	o.StopWords = slices.Clone(o.StopWords)
	return o
}

// validate checks option values that have no sensible fallback.
func (o Options) validate() error {
	if !o.DataStructure.IsValid() {
		return DefinitionError("", fmt.Sprintf("data structure must be HASH or JSON, got '%s'", o.DataStructure))
	}
	switch o.UseStopWords {
	case StopWordsOff, StopWordsDefault, StopWordsCustom:
	default:
		return DefinitionError("", fmt.Sprintf("useStopWords must be OFF, DEFAULT or CUSTOM, got '%s'", o.UseStopWords))
	}
	return nil
}

// Schema describes one entity type: its fields, storage mode and Redis naming.
// A Schema is immutable once built and may be shared between goroutines.
type Schema struct {
	entity  string
	fields  FieldDefinitionMap
	options Options
}

// Entity returns the identifier the schema is registered under.
func (s *Schema) Entity() string { return s.entity }

// Fields returns the field definitions in declaration order.
func (s *Schema) Fields() FieldDefinitionMap { return s.fields }

// Prefix returns the key prefix.
func (s *Schema) Prefix() string { return s.options.Prefix }

// IndexName returns the RediSearch index name.
func (s *Schema) IndexName() string { return s.options.IndexName }

// IndexHashName returns the key holding the current index definition hash.
func (s *Schema) IndexHashName() string { return s.options.IndexHashName }

// DataStructure returns the storage mode.
func (s *Schema) DataStructure() DataStructure { return s.options.DataStructure }

// UseStopWords returns the stop word policy.
func (s *Schema) UseStopWords() StopWordOptions { return s.options.UseStopWords }

// StopWords returns the custom stop words.
func (s *Schema) StopWords() []string { return slices.Clone(s.options.StopWords) }

// GenerateID returns a new entity identifier.
func (s *Schema) GenerateID() string { return s.options.IDStrategy() }

// KeyName returns the Redis key of the entity with the given id.
func (s *Schema) KeyName(id string) string {
	return s.options.Prefix + ":" + id
}
