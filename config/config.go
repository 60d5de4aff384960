package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mailread/model"
)

// Config captures one read invocation as parsed from the command line.
type Config struct {
	Folder      string
	IDs         []string
	Preview     bool
	Policy      model.HeaderPolicy
	AccountName string
	ConfigPath  string
	Output      string
	LogLevel    string
	LogDir      string
}

// RegisterFlags attaches all CLI flags to the provided command.
func RegisterFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("folder", "f", "INBOX", "Folder to read messages from")
	flags.BoolP("preview", "p", false, "Read without applying the seen flag to the messages")
	flags.Bool("no-headers", false, "Show only the message body (mutually exclusive with --header)")
	flags.StringArrayP("header", "H", nil, "Header to show at the top of the message, repeatable (mutually exclusive with --no-headers)")
	flags.StringP("account", "a", "", "Account to read from (defaults to the configured default account)")
	flags.String("config", "", "Path to the configuration file")
	flags.StringP("output", "o", "text", "Output format: text, json")
	flags.String("log-level", "info", "Logging level: debug, info, warn, error")
	flags.String("log-dir", "", "Directory for log files (logs go to stderr only when empty)")
}

// LoadConfig converts the parsed Cobra flags and positional envelope
// ids into a Config struct with validation.
func LoadConfig(cmd *cobra.Command, args []string) (Config, error) {
	flags := cmd.Flags()

	folder, err := flags.GetString("folder")
	if err != nil {
		return Config{}, err
	}
	preview, err := flags.GetBool("preview")
	if err != nil {
		return Config{}, err
	}
	noHeaders, err := flags.GetBool("no-headers")
	if err != nil {
		return Config{}, err
	}
	headers, err := flags.GetStringArray("header")
	if err != nil {
		return Config{}, err
	}
	accountName, err := flags.GetString("account")
	if err != nil {
		return Config{}, err
	}
	configPath, err := flags.GetString("config")
	if err != nil {
		return Config{}, err
	}
	output, err := flags.GetString("output")
	if err != nil {
		return Config{}, err
	}
	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return Config{}, err
	}
	logDir, err := flags.GetString("log-dir")
	if err != nil {
		return Config{}, err
	}

	policy, err := headerPolicy(noHeaders, headers)
	if err != nil {
		return Config{}, err
	}

	if configPath == "" {
		configPath, err = DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
	}

	logLevel = strings.ToLower(logLevel)
	if logLevel == "warning" {
		logLevel = "warn"
	}

	cfg := Config{
		Folder:      folder,
		IDs:         args,
		Preview:     preview,
		Policy:      policy,
		AccountName: accountName,
		ConfigPath:  configPath,
		Output:      output,
		LogLevel:    logLevel,
		LogDir:      logDir,
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// headerPolicy builds the single policy value from the two flags. The
// invalid joint state is rejected here so nothing downstream has to
// consider it.
func headerPolicy(noHeaders bool, headers []string) (model.HeaderPolicy, error) {
	if noHeaders && len(headers) > 0 {
		return model.HeaderPolicy{}, fmt.Errorf("--no-headers and --header are mutually exclusive")
	}
	switch {
	case noHeaders:
		return model.HeaderPolicy{Mode: model.HideAllHeaders}, nil
	case len(headers) > 0:
		return model.HeaderPolicy{Mode: model.ShowOnlyHeaders, Headers: headers}, nil
	default:
		return model.HeaderPolicy{Mode: model.ShowConfiguredHeaders}, nil
	}
}

func validateConfig(cfg Config) error {
	if len(cfg.IDs) == 0 {
		return fmt.Errorf("at least one envelope id is required")
	}
	for _, id := range cfg.IDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("envelope id must not be empty")
		}
	}

	switch cfg.Output {
	case "text", "json":
	default:
		return fmt.Errorf("invalid --output: %s", cfg.Output)
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid --log-level: %s", cfg.LogLevel)
	}

	return nil
}
