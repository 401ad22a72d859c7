package types

import "errors"

// Config holds backend selection and parameters for the ledger service.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`

	// Sheets backend parameters.
	SpreadsheetID   string `json:"spreadsheet_id" yaml:"spreadsheet_id"`
	SheetName       string `json:"sheet_name" yaml:"sheet_name"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`

	// SQLite backend parameters.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// GrantAmount is the token balance written by a successful claim.
	// It overwrites any existing balance rather than adding to it.
	GrantAmount int64 `json:"grant_amount" yaml:"grant_amount"`

	// StoreTimeoutSeconds bounds each store round trip.
	StoreTimeoutSeconds int `json:"store_timeout_seconds" yaml:"store_timeout_seconds"`

	// HTTP server parameters.
	ListenAddr    string   `json:"listen_addr" yaml:"listen_addr"`
	APIKeys       []string `json:"api_keys" yaml:"api_keys"`
	AllowedOrigin string   `json:"allowed_origin" yaml:"allowed_origin"`

	LLM LLMConfig `json:"llm" yaml:"llm"`
}

// LLMConfig holds parameters for the outbound completion proxy.
type LLMConfig struct {
	URL            string `json:"url" yaml:"url"`
	APIKey         string `json:"api_key" yaml:"api_key"`
	Model          string `json:"model" yaml:"model"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// Supported backend names.
const (
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
)

// Defaults applied by DefaultConfig and the CLI layer.
const (
	DefaultGrantAmount  int64 = 500000
	DefaultStoreTimeout       = 30
	DefaultListenAddr         = ":8080"
	DefaultSheetName          = "Orders"
)

// Config validation errors.
var (
	ErrBackendEmpty        = errors.New("backend must not be empty")
	ErrBackendUnknown      = errors.New("unknown backend")
	ErrSpreadsheetIDEmpty  = errors.New("spreadsheet_id must not be empty for the sheets backend")
	ErrGrantAmountInvalid  = errors.New("grant_amount must be positive")
	ErrStoreTimeoutInvalid = errors.New("store_timeout_seconds must be positive")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSheets: true,
	BackendSQLite: true,
}

// DefaultConfig returns a Config with every defaulted field populated.
func DefaultConfig() Config {
	return Config{
		Backend:             BackendSQLite,
		SheetName:           DefaultSheetName,
		GrantAmount:         DefaultGrantAmount,
		StoreTimeoutSeconds: DefaultStoreTimeout,
		ListenAddr:          DefaultListenAddr,
	}
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendSheets && c.SpreadsheetID == "" {
		return ErrSpreadsheetIDEmpty
	}
	if c.GrantAmount <= 0 {
		return ErrGrantAmountInvalid
	}
	if c.StoreTimeoutSeconds <= 0 {
		return ErrStoreTimeoutInvalid
	}
	return nil
}
