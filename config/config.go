package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"ludoterm/selection"
	"ludoterm/types"
)

var (
	cfgFile = "ludoterm/config.json"
	logFile = "ludoterm/ludoterm.log"
)

// EnvPrefix prefixes every environment override, e.g. LUDOTERM_AUTHORITY_URL.
const EnvPrefix = "LUDOTERM"

type InvalidConfig struct {
	err string
}

func (e *InvalidConfig) Error() string {
	return fmt.Sprintf("Config error: %s", e.err)
}

// ConfigColors holds 256-colour palette indexes.
type ConfigColors struct {
	Red       int `json:"red" mapstructure:"red"`
	Green     int `json:"green" mapstructure:"green"`
	Yellow    int `json:"yellow" mapstructure:"yellow"`
	Blue      int `json:"blue" mapstructure:"blue"`
	Highlight int `json:"highlight" mapstructure:"highlight"`
	Selected  int `json:"selected" mapstructure:"selected"`
	CursorFG  int `json:"cursor_fg" mapstructure:"cursor_fg"`
	CursorBG  int `json:"cursor_bg" mapstructure:"cursor_bg"`
}

type ConfigSymbols struct {
	Pawn        rune `json:"pawn" mapstructure:"pawn"`
	BlockedPawn rune `json:"blocked_pawn" mapstructure:"blocked_pawn"`
	Destination rune `json:"destination" mapstructure:"destination"`
	Selected    rune `json:"selected" mapstructure:"selected"`
}

type Theme struct {
	Colors  ConfigColors  `json:"colors" mapstructure:"colors"`
	Symbols ConfigSymbols `json:"symbols" mapstructure:"symbols"`
}

// AuthorityConfig says where the game authority lives and how often to poll it.
type AuthorityConfig struct {
	URL            string        `json:"url" mapstructure:"url"`
	Push           bool          `json:"push" mapstructure:"push"`
	PushURL        string        `json:"push_url" mapstructure:"push_url"`
	PollInterval   time.Duration `json:"poll_interval" mapstructure:"poll_interval"`
	RequestTimeout time.Duration `json:"request_timeout" mapstructure:"request_timeout"`
	LogFiles       int           `json:"log_files" mapstructure:"log_files"`
}

type SelectionConfig struct {
	MatchMode string `json:"match_mode" mapstructure:"match_mode"`
}

type LogConfig struct {
	File    string `json:"file" mapstructure:"file"`
	Verbose bool   `json:"verbose" mapstructure:"verbose"`
}

type Config struct {
	Authority AuthorityConfig        `json:"authority" mapstructure:"authority"`
	Selection SelectionConfig        `json:"selection" mapstructure:"selection"`
	Theme     Theme                  `json:"theme" mapstructure:"theme"`
	Log       LogConfig              `json:"log" mapstructure:"log"`
	Seats     []types.SeatAssignment `json:"seats" mapstructure:"seats"`
}

// NewViper returns a viper instance wired for ludoterm's environment variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	d := DefaultConfig
	v.SetDefault("authority.url", d.Authority.URL)
	v.SetDefault("authority.push", d.Authority.Push)
	v.SetDefault("authority.push_url", d.Authority.PushURL)
	v.SetDefault("authority.poll_interval", d.Authority.PollInterval)
	v.SetDefault("authority.request_timeout", d.Authority.RequestTimeout)
	v.SetDefault("authority.log_files", d.Authority.LogFiles)
	v.SetDefault("selection.match_mode", d.Selection.MatchMode)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.verbose", d.Log.Verbose)
	return v
}

// InitConfig loads .env, the config file found in the XDG config dirs,
// the environment and any flags already bound to v, in rising priority.
func InitConfig(v *viper.Viper) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	path, err := xdg.SearchConfigFile(cfgFile)
	if err != nil {
		path = ""
	}
	return Load(v, path)
}

// Load builds the config from v and the JSON file at path, if any.
func Load(v *viper.Viper, path string) (*Config, error) {
	config := DefaultConfig
	config.Seats = append([]types.SeatAssignment(nil), DefaultConfig.Seats...)
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, &InvalidConfig{fmt.Sprintf("reading %s: %v", path, err)}
		}
	}
	if err := v.Unmarshal(&config); err != nil {
		return nil, &InvalidConfig{err.Error()}
	}
	if config.Log.File == "" {
		if p, err := xdg.StateFile(logFile); err == nil {
			config.Log.File = p
		}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadDotEnv exports the variables of a .env file. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &InvalidConfig{fmt.Sprintf("reading %s: %v", path, err)}
	}
	return nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.Authority.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &InvalidConfig{fmt.Sprintf("authority url %q must be an http(s) URL", c.Authority.URL)}
	}
	if c.Authority.PushURL != "" {
		u, err := url.Parse(c.Authority.PushURL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			return &InvalidConfig{fmt.Sprintf("push url %q must be a ws(s) URL", c.Authority.PushURL)}
		}
	}
	if c.Authority.PollInterval < 100*time.Millisecond {
		return &InvalidConfig{"poll interval must be at least 100ms"}
	}
	if c.Authority.RequestTimeout <= 0 {
		return &InvalidConfig{"request timeout must be positive"}
	}
	if _, err := selection.ParseMatchMode(c.Selection.MatchMode); err != nil {
		return &InvalidConfig{err.Error()}
	}
	for _, r := range []rune{c.Theme.Symbols.Pawn, c.Theme.Symbols.BlockedPawn, c.Theme.Symbols.Destination, c.Theme.Symbols.Selected} {
		if r < 32 || (r >= 127 && r <= 159) {
			return &InvalidConfig{"Unicode characters 1-31 and 127-159 are not allowed"}
		}
	}
	for i, seat := range c.Seats {
		if seat.Mode != types.ModeHuman && seat.Mode != types.ModeAI {
			return &InvalidConfig{fmt.Sprintf("seat %d: mode must be %s or %s", i+1, types.ModeHuman, types.ModeAI)}
		}
		for _, col := range seat.Colours {
			if !validColour(col) {
				return &InvalidConfig{fmt.Sprintf("seat %d: unknown colour %q", i+1, col)}
			}
		}
	}
	return nil
}

func validColour(c types.Colour) bool {
	for _, k := range types.Colours {
		if k == c {
			return true
		}
	}
	return false
}

// MatchMode returns the parsed selection match mode.
func (c *Config) MatchMode() selection.MatchMode {
	m, _ := selection.ParseMatchMode(c.Selection.MatchMode)
	return m
}

// Save writes the config to the user's XDG config dir.
func (c *Config) Save() error {
	absPath, err := xdg.ConfigFile(cfgFile)
	if err != nil {
		return err
	}
	return saveCfgFile(absPath, c, 0664)
}

func saveCfgFile(filePath string, a interface{}, perm fs.FileMode) error {
	jsonData, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, jsonData, perm)
}
