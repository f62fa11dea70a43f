package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	yaml "gopkg.in/yaml.v2"
)

const DefaultImageFile = "DBdump.sqlite3"
const DefaultSchemaVersion = "0114"

// AttributeAlias extends query.DefaultAliases with a site-specific
// identifier -> SQL expression mapping, a config-driven alias table in
// the same vein as a branch-mapping or type-mapping table.
type AttributeAlias struct {
	Name string `yaml:"name"`
	SQL  string `yaml:"sql"`
}

// ContentTypeMap overrides object.ContentKind's sniff-based classification for
// paths matching RePath, a regexp-keyed type map over the CM archive path.
type ContentTypeMap struct {
	Kind   string `yaml:"kind"`
	RePath string `yaml:"path"`

	ReCompiled *regexp.Regexp
}

// Config drives one run against a single CM backup.
type Config struct {
	BackupPath       string            `yaml:"backup_path"`
	ImageFile        string            `yaml:"image_file"`
	SchemaVersion    string            `yaml:"schema_version"`
	AttributeAliases []AttributeAlias  `yaml:"attribute_aliases"`
	ContentTypeMaps  []ContentTypeMap  `yaml:"content_typemaps"`
}

// Unmarshal parses config, applying defaults and compiling every regex up
// front so failures surface at load time rather than mid-query.
func Unmarshal(config []byte) (*Config, error) {
	cfg := &Config{
		ImageFile:     DefaultImageFile,
		SchemaVersion: DefaultSchemaVersion,
	}
	if err := yaml.Unmarshal(config, cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v. make sure to use 'single quotes' around strings with special characters (like match patterns)", err.Error())
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFile loads and parses a config file from disk.
func LoadConfigFile(filename string) (*Config, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to load %v: %v", filename, err.Error())
	}
	cfg, err := LoadConfigString(content)
	if err != nil {
		return nil, fmt.Errorf("failed to load %v: %v", filename, err.Error())
	}
	return cfg, nil
}

// LoadConfigString loads and parses config from an in-memory byte slice.
func LoadConfigString(content []byte) (*Config, error) {
	return Unmarshal(content)
}

func (c *Config) validate() error {
	if c.BackupPath == "" {
		return fmt.Errorf("backup_path is required")
	}
	if c.ImageFile == "" {
		c.ImageFile = DefaultImageFile
	}
	if c.SchemaVersion == "" {
		c.SchemaVersion = DefaultSchemaVersion
	}

	for _, a := range c.AttributeAliases {
		if a.Name == "" || a.SQL == "" {
			return fmt.Errorf("attribute_aliases entry %+v requires both name and sql", a)
		}
	}

	for i, m := range c.ContentTypeMaps {
		if !strings.EqualFold(m.Kind, "text") && !strings.EqualFold(m.Kind, "binary") {
			return fmt.Errorf("content_typemaps entry %q must have kind 'text' or 'binary'", m.RePath)
		}
		reStr := strings.ReplaceAll(m.RePath, "...", ".*")
		re, err := regexp.Compile(reStr)
		if err != nil {
			return fmt.Errorf("failed to parse '%s' as a regex: %v", m.RePath, err)
		}
		c.ContentTypeMaps[i].ReCompiled = re
	}
	return nil
}

// AliasMap renders AttributeAliases as a query.AliasTable-shaped map, kept
// untyped here so config does not import query (query has no reason to
// depend back on config).
func (c *Config) AliasMap() map[string]string {
	m := make(map[string]string, len(c.AttributeAliases))
	for _, a := range c.AttributeAliases {
		m[a.Name] = a.SQL
	}
	return m
}
