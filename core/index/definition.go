package index

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tsrpcx/redis-omx-node/core/schema"
)

// Definition is everything FT.CREATE needs for one schema.
type Definition struct {
	IndexName     string                    `json:"indexName"`
	IndexHashName string                    `json:"indexHashName"`
	Prefix        string                    `json:"prefix"`
	DataStructure schema.DataStructure      `json:"dataStructure"`
	UseStopWords  schema.StopWordOptions    `json:"useStopWords"`
	StopWords     []string                  `json:"stopWords"`
	Fields        schema.FieldDefinitionMap `json:"definition"`
	Schema        []string                  `json:"schema"`
	Warnings      []Warning                 `json:"-"`
}

// Define compiles s into a full index definition.
func (c *Compiler) Define(s *schema.Schema) (*Definition, error) {
	tokens, warnings, err := c.compile(s.Fields(), s.DataStructure(), map[string]bool{s.Entity(): true})
	if err != nil {
		return nil, fmt.Errorf("failed to compile index for %s: %w", s.Entity(), err)
	}

	stopWords := s.StopWords()
	if stopWords == nil {
		stopWords = []string{}
	}

	return &Definition{
		IndexName:     s.IndexName(),
		IndexHashName: s.IndexHashName(),
		Prefix:        s.Prefix(),
		DataStructure: s.DataStructure(),
		UseStopWords:  s.UseStopWords(),
		StopWords:     stopWords,
		Fields:        s.Fields(),
		Schema:        tokens,
		Warnings:      warnings,
	}, nil
}

// Args returns the FT.CREATE arguments following the command name.
func (d *Definition) Args() []string {
	args := []string{
		d.IndexName,
		"ON", string(d.DataStructure),
		"PREFIX", "1", d.Prefix + ":",
	}

	switch d.UseStopWords {
	case schema.StopWordsOff:
		args = append(args, "STOPWORDS", "0")
	case schema.StopWordsCustom:
		args = append(args, "STOPWORDS", strconv.Itoa(len(d.StopWords)))
		args = append(args, d.StopWords...)
	}

	args = append(args, "SCHEMA")
	return append(args, d.Schema...)
}

// Hash fingerprints the definition so an unchanged index is not rebuilt.
func (d *Definition) Hash() (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to marshal index definition: %w", err)
	}
	sum := sha1.Sum(data)
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}
