// Package config provides configuration structures and loading for the
// reconciliation pipeline.
package config

// Config represents the complete application configuration.
type Config struct {
	Paths      PathsConfig               `yaml:"paths" mapstructure:"paths"`
	Database   DatabaseConfig            `yaml:"database" mapstructure:"database"`
	Extraction ExtractionConfig          `yaml:"extraction" mapstructure:"extraction"`
	Pipelines  map[string]PipelineConfig `yaml:"pipelines" mapstructure:"pipelines"`
	Logging    LoggingConfig             `yaml:"logging" mapstructure:"logging"`
}

// PathsConfig holds the base directories for snapshot inputs and exports.
type PathsConfig struct {
	Input  string `yaml:"input" mapstructure:"input"`
	Output string `yaml:"output" mapstructure:"output"`
}

// DatabaseConfig represents the collections-system database used for
// snapshot extraction.
type DatabaseConfig struct {
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// ExtractionConfig holds the queries used to materialize ledger and judicial
// snapshots into the input directories.
type ExtractionConfig struct {
	LedgerQuery    string `yaml:"ledger_query" mapstructure:"ledger_query"`
	LedgerPrefix   string `yaml:"ledger_prefix" mapstructure:"ledger_prefix"`
	JudicialQuery  string `yaml:"judicial_query" mapstructure:"judicial_query"`
	JudicialPrefix string `yaml:"judicial_prefix" mapstructure:"judicial_prefix"`
}

// KeySpec describes how the join key is derived from record fields: either a
// concatenation of components with a separator, or a single pass-through
// field. Exactly one form must be set.
type KeySpec struct {
	Components  []string `yaml:"components" mapstructure:"components"`
	Separator   string   `yaml:"separator" mapstructure:"separator"`
	Passthrough string   `yaml:"passthrough" mapstructure:"passthrough"`
}

// IsZero reports whether the spec is entirely unset.
func (k KeySpec) IsZero() bool {
	return len(k.Components) == 0 && k.Passthrough == ""
}

// FieldSpec assigns a formatting rule to a canonical field.
type FieldSpec struct {
	Type   string `yaml:"type" mapstructure:"type"` // date, currency, postal, phone, bool, text
	Length int    `yaml:"length" mapstructure:"length"`
}

// SnapshotConfig describes one side of the reconciliation: where its raw
// snapshot lives and how to normalize and validate it.
type SnapshotConfig struct {
	Subdir        string               `yaml:"subdir" mapstructure:"subdir"`
	Pattern       string               `yaml:"pattern" mapstructure:"pattern"`
	Rename        map[string]string    `yaml:"rename" mapstructure:"rename"`
	Key           KeySpec              `yaml:"key" mapstructure:"key"`
	Required      []string             `yaml:"required" mapstructure:"required"`
	KeyPattern    string               `yaml:"key_pattern" mapstructure:"key_pattern"`
	Fields        map[string]FieldSpec `yaml:"fields" mapstructure:"fields"`
	TreatedPrefix string               `yaml:"treated_prefix" mapstructure:"treated_prefix"`
}

// FiltersConfig holds the business pre-filters applied before the anti-join.
// The diff itself stays filter-agnostic.
type FiltersConfig struct {
	StatusColumn        string   `yaml:"status_column" mapstructure:"status_column"`
	OpenStatuses        []string `yaml:"open_statuses" mapstructure:"open_statuses"`
	PaymentTypeColumn   string   `yaml:"payment_type_column" mapstructure:"payment_type_column"`
	ExcludePaymentTypes []string `yaml:"exclude_payment_types" mapstructure:"exclude_payment_types"`
	CampaignColumn      string   `yaml:"campaign_column" mapstructure:"campaign_column"`
	ExcludeCampaigns    []string `yaml:"exclude_campaigns" mapstructure:"exclude_campaigns"`
}

// ReferenceSetConfig locates a membership list (judicial subjects, active
// agreements) keyed by a single identifier column. A missing artifact is an
// empty set, not an error.
type ReferenceSetConfig struct {
	Subdir  string `yaml:"subdir" mapstructure:"subdir"`
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
	Column  string `yaml:"column" mapstructure:"column"`
}

// SettlementsConfig locates the settlement-events dataset used to enrich
// baixa and devolução with payment date and amount.
type SettlementsConfig struct {
	Subdir       string `yaml:"subdir" mapstructure:"subdir"`
	Pattern      string `yaml:"pattern" mapstructure:"pattern"`
	KeyColumn    string `yaml:"key_column" mapstructure:"key_column"`
	DateColumn   string `yaml:"date_column" mapstructure:"date_column"`
	AmountColumn string `yaml:"amount_column" mapstructure:"amount_column"`
}

// EnrichmentConfig describes the contact flattening stage. Key must derive
// the same values as the treated dataset's stored key.
type EnrichmentConfig struct {
	Key          KeySpec  `yaml:"key" mapstructure:"key"`
	PhoneColumns []string `yaml:"phone_columns" mapstructure:"phone_columns"`
	EmailColumns []string `yaml:"email_columns" mapstructure:"email_columns"`
}

// PipelineConfig is the full per-business-line configuration. One run
// processes exactly one pipeline.
type PipelineConfig struct {
	Source           SnapshotConfig     `yaml:"source" mapstructure:"source"`
	Ledger           SnapshotConfig     `yaml:"ledger" mapstructure:"ledger"`
	IdentifierColumn string             `yaml:"identifier_column" mapstructure:"identifier_column"`
	Filters          FiltersConfig      `yaml:"filters" mapstructure:"filters"`
	Judicial         ReferenceSetConfig `yaml:"judicial" mapstructure:"judicial"`
	Agreements       ReferenceSetConfig `yaml:"agreements" mapstructure:"agreements"`
	Settlements      SettlementsConfig  `yaml:"settlements" mapstructure:"settlements"`
	Enrichment       EnrichmentConfig   `yaml:"enrichment" mapstructure:"enrichment"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			Input:  "data/input",
			Output: "data/output",
		},
		Database: DatabaseConfig{
			Port:               3306,
			TLS:                "preferred",
			MaxConnections:     10,
			MaxIdleConnections: 5,
		},
		Extraction: ExtractionConfig{
			LedgerPrefix:   "ledger",
			JudicialPrefix: "clientes_judiciais",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// DefaultOpenStatuses are the ledger statuses considered open when a
// pipeline does not override them.
var DefaultOpenStatuses = []string{"aberto", "em aberto", "vencido", "a vencer"}

// EffectiveOpenStatuses returns the configured open statuses or the default
// set when none are configured.
func (f *FiltersConfig) EffectiveOpenStatuses() []string {
	if len(f.OpenStatuses) > 0 {
		return f.OpenStatuses
	}
	return DefaultOpenStatuses
}
