package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"mailread/model"
)

// Backend kinds an account can declare.
const (
	BackendIMAP = "imap"
	BackendMbox = "mbox"
)

// IMAPConfig holds the connection settings of an IMAP account.
type IMAPConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	Username           string `mapstructure:"user"`
	Password           string `mapstructure:"pass"`
	UseTLS             *bool  `mapstructure:"tls"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify"`
}

// TLSEnabled reports whether the connection uses TLS. TLS is on unless
// the account explicitly sets tls: false.
func (c IMAPConfig) TLSEnabled() bool {
	return c.UseTLS == nil || *c.UseTLS
}

// MboxConfig holds the settings of a local mbox account.
type MboxConfig struct {
	Path     string `mapstructure:"path"`
	StateDir string `mapstructure:"state_dir"`
}

// Account is one configured mail account.
type Account struct {
	Name        string     `mapstructure:"-"`
	Backend     string     `mapstructure:"backend"`
	IMAP        IMAPConfig `mapstructure:"imap"`
	Mbox        MboxConfig `mapstructure:"mbox"`
	ReadHeaders []string   `mapstructure:"read_headers"`
}

type accountsFile struct {
	DefaultAccount string              `mapstructure:"default_account"`
	Accounts       map[string]*Account `mapstructure:"accounts"`
}

// DefaultConfigPath returns ~/.config/mailread/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "mailread", "config.yaml"), nil
}

// ResolveAccount loads the configuration file and selects an account:
// the named one, or the configured default, or the sole account when
// only one exists.
func ResolveAccount(path, name string) (*Account, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var file accountsFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if len(file.Accounts) == 0 {
		return nil, fmt.Errorf("no accounts configured in %s", path)
	}

	account, err := selectAccount(&file, name)
	if err != nil {
		return nil, err
	}

	applyAccountDefaults(account)
	if err := validateAccount(account); err != nil {
		return nil, err
	}

	return account, nil
}

func selectAccount(file *accountsFile, name string) (*Account, error) {
	if name == "" {
		name = file.DefaultAccount
	}
	if name == "" && len(file.Accounts) == 1 {
		for sole := range file.Accounts {
			name = sole
		}
	}
	if name == "" {
		return nil, fmt.Errorf("no account selected and no default_account configured")
	}

	account, ok := file.Accounts[name]
	if !ok {
		return nil, fmt.Errorf("unknown account %q", name)
	}
	account.Name = name
	return account, nil
}

func applyAccountDefaults(account *Account) {
	if account.Backend == "" {
		account.Backend = BackendIMAP
	}
	if len(account.ReadHeaders) == 0 {
		account.ReadHeaders = model.DefaultReadHeaders
	}

	switch account.Backend {
	case BackendIMAP:
		if account.IMAP.Port == 0 {
			if account.IMAP.TLSEnabled() {
				account.IMAP.Port = 993
			} else {
				account.IMAP.Port = 143
			}
		}
		if account.IMAP.Password == "" {
			account.IMAP.Password = os.Getenv("IMAP_PASS")
		}
	case BackendMbox:
		if account.Mbox.StateDir == "" {
			if home, err := os.UserHomeDir(); err == nil {
				account.Mbox.StateDir = filepath.Join(home, ".mailread", "state", account.Name)
			}
		}
	}
}

func validateAccount(account *Account) error {
	switch account.Backend {
	case BackendIMAP:
		if account.IMAP.Host == "" {
			return fmt.Errorf("account %q: imap.host is required", account.Name)
		}
		if account.IMAP.Username == "" {
			return fmt.Errorf("account %q: imap.user is required", account.Name)
		}
		if account.IMAP.Password == "" {
			return fmt.Errorf("account %q: imap.pass or the IMAP_PASS env var is required", account.Name)
		}
		if account.IMAP.Port <= 0 || account.IMAP.Port > 65535 {
			return fmt.Errorf("account %q: imap.port must be between 1 and 65535", account.Name)
		}
	case BackendMbox:
		if account.Mbox.Path == "" {
			return fmt.Errorf("account %q: mbox.path is required", account.Name)
		}
		if account.Mbox.StateDir == "" {
			return fmt.Errorf("account %q: mbox.state_dir is required", account.Name)
		}
	default:
		return fmt.Errorf("account %q: unknown backend %q", account.Name, account.Backend)
	}
	return nil
}
