package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/freddy208/crmprospect/internal/constants"
	"github.com/freddy208/crmprospect/pkg/crm"
)

const (
	configDirName  = ".crmctl"
	configFileName = "config.yml"
)

// Config represents the CLI configuration.
type Config struct {
	API         string        `json:"api,omitempty"         yaml:"api,omitempty"`
	Output      string        `json:"output,omitempty"      yaml:"output,omitempty"`
	Email       string        `json:"email,omitempty"       yaml:"email,omitempty"`
	Cookies     []string      `json:"cookies,omitempty"     yaml:"cookies,omitempty"`
	Concurrency int           `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
	Cache       CacheSettings `json:"cache"                 yaml:"cache"`
}

// CacheSettings selects the query store backend.
type CacheSettings struct {
	Type       string `json:"type,omitempty"        yaml:"type,omitempty"`
	NATSURL    string `json:"nats_url,omitempty"    yaml:"nats_url,omitempty"`
	NATSBucket string `json:"nats_bucket,omitempty" yaml:"nats_bucket,omitempty"`
}

// CacheConfig converts the settings to the query store backend configuration.
func (s CacheSettings) CacheConfig() *crm.CacheConfig {
	config := crm.DefaultCacheConfig()

	if s.Type != "" {
		config.Type = crm.CacheType(s.Type)
	}

	if config.Type == crm.CacheTypeNATS {
		config.NATS = &crm.NATSKVConfig{
			URL:    s.NATSURL,
			Bucket: s.NATSBucket,
			TTL:    constants.CacheEntryLifetime,
			Name:   "crmctl",
		}
	}

	return config
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the settings stored in ~/.crmctl/config.yml",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigClearCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current CLI configuration. Session cookies are masked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			masked := *config
			if len(masked.Cookies) > 0 {
				masked.Cookies = []string{constants.MaskedSecret}
			}

			return newPrinter(cmd).print(masked, func(table *tablewriter.Table) {
				table.Header("Property", "Value")
				_ = table.Append("API", valueOrNA(masked.API))
				_ = table.Append("Output", valueOrNA(masked.Output))
				_ = table.Append("Email", valueOrNA(masked.Email))
				_ = table.Append("Session", valueOrNA(strings.Join(masked.Cookies, ", ")))
				_ = table.Append("Concurrency", strconv.Itoa(masked.Concurrency))
				_ = table.Append("Cache", valueOrNA(masked.Cache.Type))
				_ = table.Append("NATS URL", valueOrNA(masked.Cache.NATSURL))
				_ = table.Append("NATS Bucket", valueOrNA(masked.Cache.NATSBucket))
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Keys: api, output, email, concurrency, cache.type, cache.nats_url, cache.nats_bucket",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			err := setConfigValue(config, args[0], args[1])
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])

			return nil
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value so its default applies again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			err := unsetConfigValue(config, args[0])
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])

			return nil
		},
	}
}

func newConfigClearCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear all configuration",
		Long:  "Remove every stored setting, including the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				_, _ = fmt.Fprint(cmd.OutOrStdout(), "This removes all configuration. Continue? (y/N): ")

				if !confirm(cmd.InOrStdin()) {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Aborted")

					return nil
				}
			}

			err := saveConfigStruct(&Config{})
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Configuration cleared")

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")

	return cmd
}

// loadConfig reads the merged flag, environment and file configuration.
func loadConfig() *Config {
	return &Config{
		API:         viper.GetString("api"),
		Output:      viper.GetString("output"),
		Email:       viper.GetString("email"),
		Cookies:     viper.GetStringSlice("cookies"),
		Concurrency: viper.GetInt("concurrency"),
		Cache: CacheSettings{
			Type:       viper.GetString("cache.type"),
			NATSURL:    viper.GetString("cache.nats_url"),
			NATSBucket: viper.GetString("cache.nats_bucket"),
		},
	}
}

// configFilePath returns the file in use, or ~/.crmctl/config.yml when none was read.
func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, configDirName, configFileName), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func setConfigValue(config *Config, key, value string) error {
	switch key {
	case "api":
		config.API = value
	case "output":
		if !validOutputFormat(value) {
			return fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, value)
		}

		config.Output = value
	case "email":
		config.Email = value
	case "concurrency":
		limit, err := strconv.Atoi(value)
		if err != nil || limit < 1 {
			return fmt.Errorf("%w: concurrency must be a positive integer", constants.ErrInvalidFlagValue)
		}

		config.Concurrency = limit
	case "cache.type":
		switch crm.CacheType(value) {
		case crm.CacheTypeMemory, crm.CacheTypeNATS, crm.CacheTypeNone:
		default:
			return fmt.Errorf("%w: %s", crm.ErrUnknownCacheType, value)
		}

		config.Cache.Type = value
	case "cache.nats_url":
		config.Cache.NATSURL = value
	case "cache.nats_bucket":
		config.Cache.NATSBucket = value
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

func unsetConfigValue(config *Config, key string) error {
	switch key {
	case "api":
		config.API = ""
	case "output":
		config.Output = ""
	case "email":
		config.Email = ""
	case "cookies":
		config.Cookies = nil
	case "concurrency":
		config.Concurrency = 0
	case "cache.type":
		config.Cache.Type = ""
	case "cache.nats_url":
		config.Cache.NATSURL = ""
	case "cache.nats_bucket":
		config.Cache.NATSBucket = ""
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

func confirm(in io.Reader) bool {
	var answer string

	_, _ = fmt.Fscanln(in, &answer)
	answer = strings.ToLower(strings.TrimSpace(answer))

	return answer == "y" || answer == "yes"
}
