// file: internal/config/config.go
// version: 1.3.0
// guid: 7b8c9d0e-1f2a-3b4c-5d6e-7f8a9b0c1d2e

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Precedence values for reconciling local tags against catalog data.
const (
	PrecedenceRemote = "remote"
	PrecedenceLocal  = "local"
)

// Config holds application configuration
type Config struct {
	InputDir  string
	OutputDir string
	LogPath   string

	// Catalog endpoint bases. These point at external services the tool
	// does not own; both are overridable for mirrors and tests.
	CatalogAPIBase string
	CatalogWebBase string

	// Naming templates used when computing destination paths.
	FolderNamingPattern string
	FileNamingPattern   string

	MoveFiles     bool
	DryRun        bool
	CreateOPF     bool
	MinFileSizeMB int

	// Precedence decides which side wins when local tags and catalog data
	// disagree on a non-empty field ("remote" or "local").
	Precedence          string
	MultiValueDelimiter string

	SupportedExtensions []string
}

var AppConfig Config

// InitConfig initializes the application configuration from viper state
func InitConfig() {
	viper.SetDefault("catalog.api_base", "https://api.audible.com")
	viper.SetDefault("catalog.web_base", "https://www.audible.com")
	viper.SetDefault("naming.folder_pattern", "{author}/{series}/{title} ({year})")
	viper.SetDefault("naming.file_pattern", "{title} - {author}")
	viper.SetDefault("organizer.min_file_size_mb", 80)
	viper.SetDefault("organizer.create_opf", true)
	viper.SetDefault("organizer.precedence", PrecedenceRemote)
	viper.SetDefault("organizer.multi_value_delimiter", " & ")

	AppConfig = Config{
		InputDir:            viper.GetString("input_dir"),
		OutputDir:           viper.GetString("output_dir"),
		LogPath:             viper.GetString("log_path"),
		CatalogAPIBase:      strings.TrimRight(viper.GetString("catalog.api_base"), "/"),
		CatalogWebBase:      strings.TrimRight(viper.GetString("catalog.web_base"), "/"),
		FolderNamingPattern: viper.GetString("naming.folder_pattern"),
		FileNamingPattern:   viper.GetString("naming.file_pattern"),
		MoveFiles:           viper.GetBool("organizer.move_files"),
		DryRun:              viper.GetBool("organizer.dry_run"),
		CreateOPF:           viper.GetBool("organizer.create_opf"),
		MinFileSizeMB:       viper.GetInt("organizer.min_file_size_mb"),
		Precedence:          viper.GetString("organizer.precedence"),
		MultiValueDelimiter: viper.GetString("organizer.multi_value_delimiter"),
		SupportedExtensions: []string{
			".m4b", ".mp3", ".m4a", ".aax",
		},
	}

	if AppConfig.Precedence == "" {
		AppConfig.Precedence = PrecedenceRemote
	}
}

// Validate checks the loaded configuration for batch processing. Serve and
// lookup modes have looser requirements and validate what they need inline.
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("input directory not specified")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory not specified")
	}
	if c.Precedence != PrecedenceRemote && c.Precedence != PrecedenceLocal {
		return fmt.Errorf("unknown precedence %q (want %q or %q)", c.Precedence, PrecedenceRemote, PrecedenceLocal)
	}
	if c.FolderNamingPattern == "" || c.FileNamingPattern == "" {
		return fmt.Errorf("naming patterns must not be empty")
	}
	return nil
}

// IsSupportedExtension reports whether ext (with leading dot) is a supported
// audio container extension. Matching is case-insensitive.
func (c *Config) IsSupportedExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range c.SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
