package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/huangsam/tranche/schema"
)

// LoadRulesFile reads the YAML category rules at path.
func LoadRulesFile(path string) ([]schema.CategoryRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes a rules document of the form:
//
//	rules:
//	  - title: Infra
//	    kind: group
//	    match: ["infra-*", "ops"]
//	    display: true
//
// Unknown fields are rejected so typos surface early. Kinds are lowercased.
func ParseRules(data []byte) ([]schema.CategoryRule, error) {
	var file schema.RulesFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	for i := range file.Rules {
		file.Rules[i].Kind = schema.RuleKind(strings.ToLower(string(file.Rules[i].Kind)))
	}
	return file.Rules, nil
}
