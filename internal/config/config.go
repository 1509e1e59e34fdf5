// Package config defines the YAML-tagged configuration knobs every
// pipeline-stage entrypoint loads at process start, per the teacher's
// yaml-struct convention (core/job.StreamJobConfig, core/broker.KafkaConfig,
// stream/binding/pulsar.Config).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BusConfig names the event bus a stage binds against. Driver selects
// "kafka" or "pulsar"; URL is the bootstrap/broker-list address.
type BusConfig struct {
	Driver   string `yaml:"driver"`
	URL      string `yaml:"url"`
	SASLUser string `yaml:"sasl_user,omitempty"`
	SASLPass string `yaml:"sasl_pass,omitempty"`
}

// StageConfig names one pipeline stage's topic wiring and concurrency cap.
type StageConfig struct {
	ServiceName      string   `yaml:"service_name"`
	MaxWorkers       int      `yaml:"max_workers"`
	InboundEvents    []string `yaml:"inbound_events"`
	OutboundEvent    string   `yaml:"outbound_event"`
	KeyPrefix        string   `yaml:"key_prefix,omitempty"`
	ProducerServices []string `yaml:"producer_services"`
}

// GraphStoreConfig addresses the Neo4j instance the graph-write planner
// commits batches into.
type GraphStoreConfig struct {
	URI       string `yaml:"uri"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	Database  string `yaml:"database,omitempty"`
	ChunkSize int    `yaml:"chunk_size"`
}

// StagingStoreConfig addresses the Elasticsearch index the graph-write
// planner streams staged documents from.
type StagingStoreConfig struct {
	Hosts    []string `yaml:"hosts"`
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`
	Index    string   `yaml:"index"`
}

// Config is the root configuration document one stage entrypoint loads.
type Config struct {
	Env                 string             `yaml:"env"`
	TenantTopicPrefix    string             `yaml:"tenant_topic_prefix"`
	Bus                  BusConfig          `yaml:"bus"`
	Stage                StageConfig        `yaml:"stage"`
	GraphStore           GraphStoreConfig   `yaml:"graph_store"`
	StagingStore         StagingStoreConfig `yaml:"staging_store"`
	TaxonomyArtifactDir  string             `yaml:"taxonomy_artifact_dir"`
	MaxExpansionDepth    int                `yaml:"max_expansion_depth"`
	DefaultDataSources   []string           `yaml:"default_data_sources"`
}

// Load reads and decodes a Config from path, then applies any matching
// environment-variable overrides (see applyEnvOverrides).
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Cause: err}
	}
	defer f.Close()

	var c Config
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&c); err != nil {
		return nil, &ConfigError{Path: path, Cause: err}
	}
	applyEnvOverrides(&c)
	return &c, nil
}

// applyEnvOverrides lets operators override bus and store credentials
// without editing the checked-in YAML, matching how SASL/graph/staging
// credentials are conventionally kept out of configuration files.
func applyEnvOverrides(c *Config) {
	if v := os.Getenv("TAXOGRAPH_BUS_URL"); v != "" {
		c.Bus.URL = v
	}
	if v := os.Getenv("TAXOGRAPH_BUS_SASL_USER"); v != "" {
		c.Bus.SASLUser = v
	}
	if v := os.Getenv("TAXOGRAPH_BUS_SASL_PASS"); v != "" {
		c.Bus.SASLPass = v
	}
	if v := os.Getenv("TAXOGRAPH_GRAPH_URI"); v != "" {
		c.GraphStore.URI = v
	}
	if v := os.Getenv("TAXOGRAPH_GRAPH_USER"); v != "" {
		c.GraphStore.Username = v
	}
	if v := os.Getenv("TAXOGRAPH_GRAPH_PASSWORD"); v != "" {
		c.GraphStore.Password = v
	}
	if v := os.Getenv("TAXOGRAPH_STAGING_USER"); v != "" {
		c.StagingStore.Username = v
	}
	if v := os.Getenv("TAXOGRAPH_STAGING_PASSWORD"); v != "" {
		c.StagingStore.Password = v
	}
}

// ConfigError reports a missing or malformed configuration document. Fatal
// at stage start.
type ConfigError struct {
	Path  string
	Cause error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: failed to load %q: %v", e.Path, e.Cause)
}

func (e *ConfigError) Unwrap() error { return e.Cause }
