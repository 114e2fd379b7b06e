package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	domainConfig "github.com/secmon-lab/risktree/pkg/domain/model/config"
	"github.com/urfave/cli/v3"
)

// AppConfig represents the TOML application configuration
type AppConfig struct {
	Organization OrganizationSection `toml:"organization"`
	Report       ReportSection       `toml:"report"`

	path string
}

// OrganizationSection describes the organization modelled by the tree
type OrganizationSection struct {
	RootName   string `toml:"root_name"`
	CityMarker string `toml:"city_marker"`
}

// ReportSection holds report rendering settings
type ReportSection struct {
	Title    string      `toml:"title"`
	Output   string      `toml:"output"`
	Font     string      `toml:"font"`
	FontBold string      `toml:"font_bold"`
	Bands    BandSection `toml:"bands"`
}

// BandSection holds the risk score colour thresholds
type BandSection struct {
	Low    *float64 `toml:"low"`
	Medium *float64 `toml:"medium"`
	High   *float64 `toml:"high"`
	Max    *float64 `toml:"max"`
}

func (x *AppConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to TOML configuration file",
			Destination: &x.path,
			Sources:     cli.EnvVars("RISKTREE_CONFIG"),
		},
	}
}

// Validate checks the organization section
func (o *OrganizationSection) Validate() error {
	if strings.TrimSpace(o.RootName) == "" && o.RootName != "" {
		return goerr.Wrap(ErrInvalidConfig, "root_name must not be blank", goerr.V(SectionKey, "organization"))
	}
	return nil
}

// Validate checks the report section
func (r *ReportSection) Validate() error {
	bands := r.Bands.toDomain()
	if !(bands.Low <= bands.Medium && bands.Medium <= bands.High && bands.High <= bands.Max) {
		return goerr.Wrap(ErrInvalidConfig, "risk bands must be ascending",
			goerr.V(SectionKey, "report.bands"),
			goerr.V("low", bands.Low),
			goerr.V("medium", bands.Medium),
			goerr.V("high", bands.High),
			goerr.V("max", bands.Max),
		)
	}
	if r.FontBold != "" && r.Font == "" {
		return goerr.Wrap(ErrInvalidConfig, "font_bold requires font", goerr.V(SectionKey, "report"))
	}
	return nil
}

// Validate checks the whole configuration
func (x *AppConfig) Validate() error {
	if err := x.Organization.Validate(); err != nil {
		return err
	}
	if err := x.Report.Validate(); err != nil {
		return err
	}
	return nil
}

func (b BandSection) toDomain() domainConfig.RiskBands {
	bands := domainConfig.DefaultRiskBands()
	if b.Low != nil {
		bands.Low = *b.Low
	}
	if b.Medium != nil {
		bands.Medium = *b.Medium
	}
	if b.High != nil {
		bands.High = *b.High
	}
	if b.Max != nil {
		bands.Max = *b.Max
	}
	return bands
}

// LoadAppConfiguration loads the application configuration from a TOML file
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var cfg AppConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path),
			goerr.V("error", err.Error()))
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	cfg.path = path
	return &cfg, nil
}

// Configure reads the file given by --config. Without one, defaults are
// returned.
func (x *AppConfig) Configure() (domainConfig.OrganizationConfig, domainConfig.ReportConfig, error) {
	if x.path == "" {
		return domainConfig.DefaultOrganization(), domainConfig.DefaultReport(), nil
	}

	loaded, err := LoadAppConfiguration(x.path)
	if err != nil {
		return domainConfig.OrganizationConfig{}, domainConfig.ReportConfig{}, err
	}
	return loaded.ToDomainOrganization(), loaded.ToDomainReport(), nil
}

// ToDomainOrganization converts the organization section, filling defaults
func (x *AppConfig) ToDomainOrganization() domainConfig.OrganizationConfig {
	org := domainConfig.DefaultOrganization()
	if x.Organization.RootName != "" {
		org.RootName = strings.TrimSpace(x.Organization.RootName)
	}
	if x.Organization.CityMarker != "" {
		org.CityMarker = x.Organization.CityMarker
	}
	return org
}

// ToDomainReport converts the report section, filling defaults
func (x *AppConfig) ToDomainReport() domainConfig.ReportConfig {
	cfg := domainConfig.DefaultReport()
	if x.Report.Title != "" {
		cfg.Title = x.Report.Title
	}
	if x.Report.Output != "" {
		cfg.Output = x.Report.Output
	}
	cfg.Font = x.Report.Font
	cfg.FontBold = x.Report.FontBold
	cfg.Bands = x.Report.Bands.toDomain()
	return cfg
}
