package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/fbz-tec/dbxport/core/schema"
	"gopkg.in/yaml.v3"
)

// Profile is a saved set of export settings. Nil fields are unset; command
// line flags override everything a profile sets.
type Profile struct {
	Format            *string              `yaml:"format"`
	Output            *string              `yaml:"output"`
	Compression       *string              `yaml:"compression"`
	BatchSize         *int                 `yaml:"batch_size"`
	CreateTableHeader *bool                `yaml:"create_table_header"`
	IncludeSchema     *bool                `yaml:"include_schema"`
	Delimiter         *string              `yaml:"delimiter"`
	NoHeader          *bool                `yaml:"no_header"`
	Filters           []schema.TableFilter `yaml:"filters"`
	Template          *TemplateFiles       `yaml:"template"`
}

type TemplateFiles struct {
	Header string `yaml:"header"`
	Row    string `yaml:"row"`
	Footer string `yaml:"footer"`
}

// LoadProfile reads a YAML profile. Unknown keys are rejected.
func LoadProfile(path string) (Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("error reading profile: %w", err)
	}

	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("error parsing profile %s: %w", path, err)
	}

	if p.Delimiter != nil && len([]rune(*p.Delimiter)) != 1 {
		return Profile{}, fmt.Errorf("profile %s: delimiter must be a single character", path)
	}
	if p.BatchSize != nil && *p.BatchSize < 1 {
		return Profile{}, fmt.Errorf("profile %s: batch_size must be positive", path)
	}
	for i, f := range p.Filters {
		if f.Field == "" {
			return Profile{}, fmt.Errorf("profile %s: filter %d has no field", path, i+1)
		}
	}
	return p, nil
}
