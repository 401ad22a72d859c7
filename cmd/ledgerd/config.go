// Config loading for the ledgerd CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dukaforge/sheetledger/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend         = "backend"
	cfgKeySpreadsheetID   = "spreadsheet_id"
	cfgKeySheetName       = "sheet_name"
	cfgKeyCredentialsFile = "credentials_file"
	cfgKeyDataDir         = "data_dir"
	cfgKeyGrantAmount     = "grant_amount"
	cfgKeyStoreTimeout    = "store_timeout_seconds"
	cfgKeyListenAddr      = "listen_addr"
	cfgKeyAPIKeys         = "api_keys"
	cfgKeyAllowedOrigin   = "allowed_origin"
	cfgKeyLLMURL          = "llm.url"
	cfgKeyLLMAPIKey       = "llm.api_key"
	cfgKeyLLMModel        = "llm.model"
	cfgKeyLLMTimeout      = "llm.timeout_seconds"

	envPrefix = "LEDGERD"
)

// loadedConfig is the assembled service configuration.
// Set by PersistentPreRunE so all subcommands can use it.
var loadedConfig types.Config

// loadConfig reads config.yaml from the resolved config directory using
// Viper, layering LEDGERD_* environment variables on top. It creates the
// config directory and a default config.yaml on first run; a missing
// config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}

	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	defaults := types.DefaultConfig()
	v.SetDefault(cfgKeyBackend, defaults.Backend)
	v.SetDefault(cfgKeySheetName, defaults.SheetName)
	v.SetDefault(cfgKeyGrantAmount, defaults.GrantAmount)
	v.SetDefault(cfgKeyStoreTimeout, defaults.StoreTimeoutSeconds)
	v.SetDefault(cfgKeyListenAddr, defaults.ListenAddr)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	return v, nil
}

// buildConfig assembles a types.Config from the loaded viper instance.
func buildConfig(v *viper.Viper) types.Config {
	return types.Config{
		Backend:             v.GetString(cfgKeyBackend),
		SpreadsheetID:       v.GetString(cfgKeySpreadsheetID),
		SheetName:           v.GetString(cfgKeySheetName),
		CredentialsFile:     v.GetString(cfgKeyCredentialsFile),
		DataDir:             v.GetString(cfgKeyDataDir),
		GrantAmount:         v.GetInt64(cfgKeyGrantAmount),
		StoreTimeoutSeconds: v.GetInt(cfgKeyStoreTimeout),
		ListenAddr:          v.GetString(cfgKeyListenAddr),
		APIKeys:             v.GetStringSlice(cfgKeyAPIKeys),
		AllowedOrigin:       v.GetString(cfgKeyAllowedOrigin),
		LLM: types.LLMConfig{
			URL:            v.GetString(cfgKeyLLMURL),
			APIKey:         v.GetString(cfgKeyLLMAPIKey),
			Model:          v.GetString(cfgKeyLLMModel),
			TimeoutSeconds: v.GetInt(cfgKeyLLMTimeout),
		},
	}
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory. The file is the marshalled default config,
// so every tunable key is visible to the operator.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		// File already exists.
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	out, err := yaml.Marshal(types.DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	header := []byte("# ledgerd configuration\n\n")
	return os.WriteFile(path, append(header, out...), 0o644)
}
