// config.go: This file contains the configuration for mycotool. It defines the settings struct and functions to load and save the settings.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/aldendirks/mycotool/internal/secrets"
)

//go:embed config.yaml
var configFiles embed.FS

// MycoBankSettings contains settings for the MycoBank nomenclature service.
type MycoBankSettings struct {
	AccessToken string // bearer token for the MycoBank web service, usually set via MYCOBANK_ACCESS_TOKEN
	BaseURL     string // taxon names endpoint of the MycoBank web service
	DetailsURL  string // template for the human-facing name details page, MycoBank number is appended
	Timeout     int    // HTTP timeout in seconds
}

// ResolveSettings contains settings for the name resolution pipeline.
type ResolveSettings struct {
	Exclude        string // optional path to a species exclusion list, one name per line
	BatchSize      int    // number of species per batch query
	Output         string // path to write the results TSV
	ExcludedOutput string // path to write the excluded species TSV
	Verbose        bool   // print per-name resolution notes
}

// EntrezSettings contains settings for the NCBI Entrez service.
type EntrezSettings struct {
	Email     string // contact email sent with every Entrez request
	APIKey    string // NCBI API key, raises the request allowance, usually set via NCBI_API_KEY
	BaseURL   string // E-utilities endpoint
	BatchSize int    // accessions per GenBank flatfile request
	Timeout   int    // HTTP timeout in seconds
}

// INaturalistSettings contains settings for the iNaturalist API.
type INaturalistSettings struct {
	BaseURL string // iNaturalist API endpoint
	PerPage int    // observations per page, the API caps this at 200
	Delay   int    // pause between page requests in milliseconds
	Timeout int    // HTTP timeout in seconds
}

// Settings contains all configuration options for mycotool.
type Settings struct {
	Debug bool // true to enable debug mode

	// Runtime values, not stored in config file
	Version   string `yaml:"-"` // Version from build
	BuildDate string `yaml:"-"` // Build date from build

	Main struct {
		Name string    // name of this mycotool node, used to identify the source of reports
		Log  LogConfig // logging configuration
	}

	MycoBank    MycoBankSettings    // MycoBank service configuration
	Resolve     ResolveSettings     // name resolution pipeline configuration
	Entrez      EntrezSettings      // NCBI Entrez configuration
	INaturalist INaturalistSettings // iNaturalist configuration
}

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled     bool         // true to enable this log
	Path        string       // Path to the log file
	Rotation    RotationType // Type of log rotation
	MaxSize     int64        // Max size in bytes for RotationSize
	RotationDay string       // Day of the week for RotationWeekly (as a string: "Sunday", "Monday", etc.)
}

// RotationType defines different types of log rotations.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a new
// Settings instance and stores it as the package singleton.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	// Create a new settings struct
	settings := &Settings{}

	// Initialize viper and read config
	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	// Unmarshal the config into settings
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	// Resolve credential values that reference environment variables
	if err := expandSecrets(settings); err != nil {
		return nil, fmt.Errorf("error resolving credentials: %w", err)
	}

	// Validate settings
	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	// Save settings instance
	settingsInstance = settings
	return settingsInstance, nil
}

// expandSecrets resolves ${VAR} references in credential fields. Values
// without the reference syntax pass through untouched.
func expandSecrets(settings *Settings) error {
	fields := []struct {
		name  string
		value *string
	}{
		{"mycobank.accesstoken", &settings.MycoBank.AccessToken},
		{"entrez.apikey", &settings.Entrez.APIKey},
	}

	for _, field := range fields {
		if !strings.Contains(*field.value, "${") {
			continue
		}
		expanded, err := secrets.ExpandString(*field.value)
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	return nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Get OS specific config paths
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	// Assign config paths to Viper
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Set default values for each configuration parameter
	// function defined in defaults.go
	setDefaultConfig()

	// Bind environment variables such as MYCOBANK_ACCESS_TOKEN
	// function defined in env.go
	if err := configureEnvironmentVariables(); err != nil {
		return err
	}

	// Read configuration file
	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create config with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig creates a default config file and writes it to the default config path
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")
	defaultConfig := getDefaultConfig()

	// Create directories for config file
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	// Write default config file
	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, initializing it if necessary
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			_, err := Load()
			if err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}

// SaveSettings saves the current settings to the configuration file.
// It uses SaveYAMLConfig to handle the atomic write process.
func SaveSettings() error {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()

	// Create a copy of the settings
	settingsCopy := *settingsInstance

	// Find the path of the current config file
	configPath, err := FindConfigFile()
	if err != nil {
		return fmt.Errorf("error finding config file: %w", err)
	}

	// Save the settings to the config file
	if err := SaveYAMLConfig(configPath, &settingsCopy); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}

	log.Printf("Settings saved successfully to %s", configPath)
	return nil
}

// SaveYAMLConfig updates the YAML configuration file with new settings.
// It overwrites the existing file, not preserving comments or structure.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	// Marshal the settings struct to YAML
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	// Write the YAML data to a temporary file
	// This is done to ensure atomic write operation
	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName) // Clean up the temp file if it still exists

	// Write the YAML data to the temporary file
	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	tempFile.Close()

	// Rename the temporary file to replace the original config file
	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}

	return nil
}
