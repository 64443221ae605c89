package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Mode string

const (
	ModeReadOnly Mode = "read_only"
	ModeAdmin    Mode = "admin"
)

const (
	TransportStdio      = "stdio"
	TransportStreamable = "streamable"
)

// Report output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Exclusions suppress known-acceptable findings in the health report. Name
// lists match case-insensitively; unqualified names outside the default
// schema are qualified with the schema being checked.
type Exclusions struct {
	Tables                  []string `mapstructure:"tables" yaml:"tables"`
	Indexes                 []string `mapstructure:"indexes" yaml:"indexes"`
	Sequences               []string `mapstructure:"sequences" yaml:"sequences"`
	IndexSizeThresholdBytes int64    `mapstructure:"index_size_threshold_bytes" yaml:"index_size_threshold_bytes"`
	TableSizeThresholdBytes int64    `mapstructure:"table_size_threshold_bytes" yaml:"table_size_threshold_bytes"`
	BloatSizeBytes          int64    `mapstructure:"bloat_size_bytes" yaml:"bloat_size_bytes"`
	BloatPercentage         float64  `mapstructure:"bloat_percentage" yaml:"bloat_percentage"`
}

type Config struct {
	DSN                          string     `mapstructure:"dsn"`
	NodeDSNs                     []string   `mapstructure:"node_dsns"`
	PreferredPrimary             string     `mapstructure:"preferred_primary"`
	User                         string     `mapstructure:"user"`
	Password                     string     `mapstructure:"password"`
	ConnectTimeoutSeconds        int        `mapstructure:"connect_timeout_seconds"`
	StatementTimeoutMs           int        `mapstructure:"statement_timeout_ms"`
	AppName                      string     `mapstructure:"app_name"`
	Mode                         Mode       `mapstructure:"mode"`
	AllowExecute                 bool       `mapstructure:"allow_execute"`
	ApprovalSecret               string     `mapstructure:"approval_secret"`
	MaxRows                      int        `mapstructure:"max_rows"`
	EnableCaching                bool       `mapstructure:"enable_caching"`
	CacheTTLSeconds              int        `mapstructure:"cache_ttl_seconds"`
	LogLevel                     string     `mapstructure:"log_level"`
	Transport                    string     `mapstructure:"transport"`
	HTTPAddr                     string     `mapstructure:"http_addr"`
	HTTPPort                     int        `mapstructure:"http_port"`
	HTTPPath                     string     `mapstructure:"http_path"`
	MetricsAddr                  string     `mapstructure:"metrics_addr"`
	Schemas                      []string   `mapstructure:"schemas"`
	BloatPercentageThreshold     float64    `mapstructure:"bloat_percentage_threshold"`
	RemainingPercentageThreshold float64    `mapstructure:"remaining_percentage_threshold"`
	ParallelAcrossCluster        bool       `mapstructure:"parallel_across_cluster"`
	LogStatsReset                bool       `mapstructure:"log_stats_reset"`
	ReportFormat                 string     `mapstructure:"report_format"`
	Exclusions                   Exclusions `mapstructure:"exclusions"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("dsn", "")
	v.SetDefault("node_dsns", []string{})
	v.SetDefault("preferred_primary", "")
	v.SetDefault("user", "")
	v.SetDefault("password", "")
	v.SetDefault("connect_timeout_seconds", 5)
	v.SetDefault("statement_timeout_ms", 30000)
	v.SetDefault("app_name", "pgstruct-mcp")
	v.SetDefault("mode", string(ModeReadOnly))
	v.SetDefault("allow_execute", false)
	v.SetDefault("approval_secret", "")
	v.SetDefault("max_rows", 200)
	v.SetDefault("enable_caching", true)
	v.SetDefault("cache_ttl_seconds", 5)
	v.SetDefault("log_level", "info")
	v.SetDefault("transport", TransportStdio)
	v.SetDefault("http_addr", "127.0.0.1")
	v.SetDefault("http_port", 8080)
	v.SetDefault("http_path", "/mcp")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("schemas", []string{"public"})
	v.SetDefault("bloat_percentage_threshold", 10.0)
	v.SetDefault("remaining_percentage_threshold", 10.0)
	v.SetDefault("parallel_across_cluster", true)
	v.SetDefault("log_stats_reset", true)
	v.SetDefault("report_format", FormatText)
	v.SetDefault("exclusions.tables", []string{})
	v.SetDefault("exclusions.indexes", []string{})
	v.SetDefault("exclusions.sequences", []string{})
	v.SetDefault("exclusions.index_size_threshold_bytes", 0)
	v.SetDefault("exclusions.table_size_threshold_bytes", 0)
	v.SetDefault("exclusions.bloat_size_bytes", 0)
	v.SetDefault("exclusions.bloat_percentage", 0.0)
}

// Load reads defaults, config file, environment and command line flags, in
// increasing order of precedence.
func Load() (Config, error) {
	return LoadArgs(os.Args[1:])
}

func LoadArgs(args []string) (Config, error) {
	v := viper.New()
	defaults(v)
	v.SetEnvPrefix("PGSTRUCT_MCP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fs := pflag.NewFlagSet("pgstruct-mcp", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	var cfgPathFlag string
	fs.StringVarP(&cfgPathFlag, "config", "c", "", "Config file path (yaml|json|toml)")
	fs.String("dsn", "", "Cluster DSN, may list several hosts (postgres://u:p@h1:5432,h2:5432/db)")
	fs.StringSlice("node-dsn", []string{}, "Per-node DSNs (repeatable, overrides hosts in --dsn)")
	fs.String("preferred-primary", "", "Initially assumed primary as host:port")
	fs.String("user", "", "User (optional override)")
	fs.String("password", "", "Password (optional override)")
	fs.Int("connect-timeout-seconds", 5, "Connection timeout in seconds")
	fs.Int("statement-timeout-ms", 30000, "Statement timeout in milliseconds")
	fs.String("app-name", "pgstruct-mcp", "Application name")
	fs.String("mode", string(ModeReadOnly), "Mode: read_only|admin")
	fs.Bool("allow-execute", false, "Allow execute tools")
	fs.String("approval-secret", "", "Approval secret (required if allow-execute)")
	fs.Int("max-rows", 200, "Maximum findings returned by tools")
	fs.Bool("enable-caching", true, "Enable caching")
	fs.Int("cache-ttl-seconds", 5, "Cache TTL in seconds")
	fs.String("log-level", "info", "Log level")
	fs.String("transport", TransportStdio, "Transport: stdio|streamable")
	fs.String("http-addr", "127.0.0.1", "HTTP listen address for streamable transport")
	fs.Int("http-port", 8080, "HTTP listen port for streamable transport")
	fs.String("http-path", "/mcp", "HTTP path for streamable transport")
	fs.String("metrics-addr", "", "Prometheus metrics listen address (empty disables)")
	fs.StringSlice("schemas", []string{"public"}, "Schemas checked by the health report")
	fs.Float64("bloat-percentage-threshold", 10.0, "Bloat percentage threshold (0..100)")
	fs.Float64("remaining-percentage-threshold", 10.0, "Sequence remaining percentage threshold (0..100)")
	fs.Bool("parallel-across-cluster", true, "Query all nodes concurrently for cluster-wide diagnostics")
	fs.Bool("log-stats-reset", true, "Log statistics reset age before cluster-wide diagnostics")
	fs.String("report-format", FormatText, "Health report format: text|json|yaml")

	_ = fs.Parse(args)

	cfgPath := cfgPathFlag
	if cfgPath == "" {
		cfgPath = os.Getenv("PGSTRUCT_MCP_CONFIG")
	}
	if cfgPath != "" {
		if err := readConfigFile(v, cfgPath); err != nil {
			return Config{}, err
		}
	} else {
		_ = readDefaultConfig(v) // best-effort
	}

	bindChangedFlags(v, fs)

	if v.GetString("dsn") == "" {
		if rest := fs.Args(); len(rest) > 0 && rest[0] != "" {
			v.Set("dsn", rest[0])
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Schemas = splitList(cfg.Schemas)
	cfg.NodeDSNs = splitList(cfg.NodeDSNs)
	cfg.Exclusions.Tables = splitList(cfg.Exclusions.Tables)
	cfg.Exclusions.Indexes = splitList(cfg.Exclusions.Indexes)
	cfg.Exclusions.Sequences = splitList(cfg.Exclusions.Sequences)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// bindChangedFlags maps dashed flag names onto underscored keys so flags
// only override when explicitly set.
func bindChangedFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		if key == "node_dsn" {
			key = "node_dsns"
		}
		_ = v.BindPFlag(key, f)
	})
}

func validate(cfg Config) error {
	if cfg.DSN == "" && len(cfg.NodeDSNs) == 0 {
		return errors.New("config: dsn or node_dsns is required")
	}
	if cfg.Mode != ModeReadOnly && cfg.Mode != ModeAdmin {
		return fmt.Errorf("config: mode must be one of [%s,%s]", ModeReadOnly, ModeAdmin)
	}
	if cfg.AllowExecute && cfg.ApprovalSecret == "" {
		return errors.New("config: approval_secret is required when allow_execute=true")
	}
	if cfg.ConnectTimeoutSeconds <= 0 {
		return errors.New("config: connect_timeout_seconds must be > 0")
	}
	if cfg.StatementTimeoutMs <= 0 {
		return errors.New("config: statement_timeout_ms must be > 0")
	}
	if cfg.MaxRows <= 0 {
		return errors.New("config: max_rows must be > 0")
	}
	switch cfg.Transport {
	case TransportStdio, TransportStreamable:
	default:
		return fmt.Errorf("config: transport must be one of [%s,%s]", TransportStdio, TransportStreamable)
	}
	switch cfg.ReportFormat {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("config: report_format must be one of [%s,%s,%s]", FormatText, FormatJSON, FormatYAML)
	}
	if len(cfg.Schemas) == 0 {
		return errors.New("config: at least one schema is required")
	}
	for name, p := range map[string]float64{
		"bloat_percentage_threshold":     cfg.BloatPercentageThreshold,
		"remaining_percentage_threshold": cfg.RemainingPercentageThreshold,
		"exclusions.bloat_percentage":    cfg.Exclusions.BloatPercentage,
	} {
		if !(p >= 0 && p <= 100) {
			return fmt.Errorf("config: %s must be between 0 and 100", name)
		}
	}
	for name, s := range map[string]int64{
		"exclusions.index_size_threshold_bytes": cfg.Exclusions.IndexSizeThresholdBytes,
		"exclusions.table_size_threshold_bytes": cfg.Exclusions.TableSizeThresholdBytes,
		"exclusions.bloat_size_bytes":           cfg.Exclusions.BloatSizeBytes,
	} {
		if s < 0 {
			return fmt.Errorf("config: %s must be >= 0", name)
		}
	}
	return nil
}

// splitList flattens comma separated entries and drops blanks.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func readConfigFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	return nil
}

func readDefaultConfig(v *viper.Viper) error {
	paths := defaultConfigCandidates()
	exts := []string{"yaml", "yml", "json", "toml"}
	for _, base := range paths {
		for _, ext := range exts {
			candidate := base + "." + ext
			if _, err := os.Stat(candidate); err == nil {
				v.SetConfigFile(candidate)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("read default config %s: %w", candidate, err)
				}
				return nil
			}
		}
	}
	return nil
}

func defaultConfigCandidates() []string {
	var out []string
	cwd, _ := os.Getwd()
	if cwd != "" {
		out = append(out,
			filepath.Join(cwd, "pgstruct-mcp"),
			filepath.Join(cwd, "config", "pgstruct-mcp"),
		)
	}
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			xdg = filepath.Join(home, ".config")
		}
	}
	if xdg != "" {
		out = append(out, filepath.Join(xdg, "pgstruct-mcp", "config"))
	}
	return out
}
