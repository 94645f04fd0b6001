package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Commands understood by the application.
const (
	CommandBuild    = "build"
	CommandServe    = "serve"
	CommandValidate = "validate"
	CommandInspect  = "inspect"
	CommandInit     = "init"
)

// Config is the validated application configuration assembled by the CLI.
type Config struct {
	Command    string
	MeshPath   string
	OutputDir  string // explicit output directory; empty means AppDir/<name>
	AppDir     string // root directory for generated apps
	Title      string // page title override
	Port       int
	Strict     bool // promote validation warnings to errors
	NoValidate bool // skip validation entirely
	LogFormat  string
	LogLevel   string
}

// NewConfig validates a raw config and fills derived defaults.
func NewConfig(c Config) (*Config, error) {
	switch c.Command {
	case CommandBuild, CommandServe, CommandValidate, CommandInspect, CommandInit:
	default:
		return nil, fmt.Errorf("unknown command %q", c.Command)
	}

	if c.MeshPath == "" {
		return nil, fmt.Errorf("no mesh definition path provided")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", c.Port)
	}
	if c.AppDir == "" {
		c.AppDir = defaultAppDir()
	}

	return &c, nil
}

// Settings resolves process-level defaults from the environment and an
// optional config file. The original honored an app-folder environment
// variable; RH_APP_DIR and RH_PORT keep that behavior.
func Settings() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("RH")
	v.AutomaticEnv()
	v.SetDefault("app_dir", defaultAppDir())
	v.SetDefault("port", 8080)

	v.SetConfigName("rh")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config"))
	}
	v.AddConfigPath(".")
	// A missing settings file is the normal case.
	_ = v.ReadInConfig()

	return v
}

func defaultAppDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".rh", "apps")
	}
	return filepath.Join(os.TempDir(), "rh-apps")
}
