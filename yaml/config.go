// Package yaml loads source and schema definitions from a YAML file.
//
//	sources:
//	  - name: intranet
//	    baseUrl: https://intranet.example.com/
//	    urlProcessor: moss
//	    extraCrawlUrls: [/orphan]
//	    excludePatterns: ['\.zip$']
//	    schemas:
//	      - dataType: Page
//	        appliesTo: /news/
//	        mimeTypes: text/html, application/xhtml+xml
//	        priority: 10
//	        rules:
//	          - fieldName: title
//	            cssSelector: h1
package yaml

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fwojciec/sitecrawl"
	"gopkg.in/yaml.v3"
)

// Config is the content of a configuration file.
type Config struct {
	Sources []SourceConfig
}

// SourceConfig is a source together with its schemas.
type SourceConfig struct {
	Source  *sitecrawl.Source
	Schemas []*sitecrawl.Schema
}

type fileConfig struct {
	Sources []fileSource `yaml:"sources"`
}

type fileSource struct {
	Name            string       `yaml:"name"`
	BaseURL         string       `yaml:"baseUrl"`
	URLProcessor    string       `yaml:"urlProcessor"`
	ExtraCrawlURLs  []string     `yaml:"extraCrawlUrls"`
	ExcludePatterns []string     `yaml:"excludePatterns"`
	Schemas         []fileSchema `yaml:"schemas"`
}

type fileSchema struct {
	DataType   sitecrawl.DataType     `yaml:"dataType"`
	AppliesTo  string                 `yaml:"appliesTo"`
	MIMETypes  mimeTypes              `yaml:"mimeTypes"`
	Priority   *int                   `yaml:"priority"`
	CSSFilter  string                 `yaml:"cssFilter"`
	Rules      []sitecrawl.ImportRule `yaml:"rules"`
	Processors []string               `yaml:"processors"`
}

// mimeTypes accepts either a YAML list or free text separated by commas or
// whitespace.
type mimeTypes []string

func (m *mimeTypes) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*m = sitecrawl.ParseMIMETypes(node.Value)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*m = sitecrawl.ParseMIMETypes(strings.Join(list, ","))
		return nil
	default:
		return fmt.Errorf("line %d: mimeTypes must be a string or a list", node.Line)
	}
}

// LoadConfig reads and validates the configuration file at path.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, sitecrawl.Errorf(sitecrawl.ENOTFOUND, "config file %s not found", path)
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses and validates a configuration. Unknown keys are rejected.
// Schemas without a priority are ordered after the ones before them in the
// file.
func Decode(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var fc fileConfig
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "invalid config: %v", err)
	}

	cfg := &Config{}
	names := make(map[string]bool)
	for i, fs := range fc.Sources {
		source := &sitecrawl.Source{
			Name:            fs.Name,
			BaseURL:         fs.BaseURL,
			URLProcessor:    fs.URLProcessor,
			ExtraCrawlURLs:  fs.ExtraCrawlURLs,
			ExcludePatterns: fs.ExcludePatterns,
		}
		if err := source.Validate(); err != nil {
			return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "source %d: %s", i+1, sitecrawl.ErrorMessage(err))
		}
		if names[source.Name] {
			return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "duplicate source name %q", source.Name)
		}
		names[source.Name] = true

		sc := SourceConfig{Source: source}
		priority := 0
		for j, fsch := range fs.Schemas {
			if fsch.Priority != nil {
				priority = *fsch.Priority
			} else if j > 0 {
				priority++
			}
			dataType := fsch.DataType
			if dataType == "" {
				dataType = sitecrawl.DataTypePage
			}
			schema := &sitecrawl.Schema{
				DataType:   dataType,
				AppliesTo:  fsch.AppliesTo,
				MIMETypes:  fsch.MIMETypes,
				Priority:   priority,
				CSSFilter:  fsch.CSSFilter,
				Rules:      fsch.Rules,
				Processors: fsch.Processors,
			}
			if err := schema.Validate(); err != nil {
				return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "source %q schema %d: %s", source.Name, j+1, sitecrawl.ErrorMessage(err))
			}
			sc.Schemas = append(sc.Schemas, schema)
		}
		cfg.Sources = append(cfg.Sources, sc)
	}
	return cfg, nil
}
