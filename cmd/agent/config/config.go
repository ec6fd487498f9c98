package config

import (
	"os"
	"path/filepath"
	"time"

	"hyperagent/internal/logger"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

func init() {
	envFiles := []string{
		".env",
	}

	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err != nil {
			if !os.IsNotExist(err) {
				logger.Warn("Error loading %s: %v", envFile, err)
			}
		}
	}
}

func GetEnv(key string, defaultValue string) string {
	value := os.Getenv(key)

	if value == "" {
		return defaultValue
	}

	return value
}

func getHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		logger.Warn("Could not determine home directory: %v", err)
		return ""
	}
	return homeDir
}

func getDefaultDatabasePath(fallback string, profile string) string {
	homeDir := getHomeDir()
	if homeDir == "" {
		return fallback
	}
	return filepath.Join(homeDir, ".hyperagent", profile, "hyperagent.db")
}

func getDefaultSSHKeyPath() string {
	homeDir := getHomeDir()
	if homeDir == "" {
		return ".ssh/id_rsa"
	}
	return filepath.Join(homeDir, ".ssh", "id_rsa")
}

// fileConfig is the optional on-disk configuration, loaded from
// ~/.hyperagent/config.toml when present. Environment variables win over
// file values, file values win over built-in defaults.
type fileConfig struct {
	Model            string `toml:"model"`
	LLMAPIBase       string `toml:"llm_api_base"`
	HyperbolicAPIURL string `toml:"hyperbolic_api_url"`
	AMQPURL          string `toml:"amqp_url"`
	AuditQueue       string `toml:"audit_queue"`
}

func loadFileConfig() fileConfig {
	var fc fileConfig

	homeDir := getHomeDir()
	if homeDir == "" {
		return fc
	}

	path := filepath.Join(homeDir, ".hyperagent", "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fc
	}

	if _, err := toml.DecodeFile(path, &fc); err != nil {
		logger.Warn("Error loading %s: %v", path, err)
	}

	return fc
}

func orDefault(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

type Configuration struct {
	Profile      string
	DatabasePath string

	HyperbolicAPIKey string
	HyperbolicAPIURL string

	LLMAPIKey  string
	LLMAPIBase string
	Model      string

	DefaultSSHKeyPath string
	SSHDialTimeout    time.Duration
	ProbeTimeout      time.Duration

	AMQPURL    string
	AuditQueue string

	MaxIterations int
	SessionWindow int
	AutoInterval  time.Duration

	// Remote filesystem layout and ports produced by node provisioning.
	// These are part of the reproducible contract of `node up`.
	SecretsDir        string
	JWTSecretPath     string
	NodeDataDir       string
	GethLogPath       string
	LighthouseLogPath string
	LighthouseVersion string
	AuthRPCPort       uint16
	ExecutionRPCPort  uint16
	ConsensusAPIPort  uint16
	ReadinessMaxWait  time.Duration
	ReadinessInterval time.Duration
}

var Profile = GetEnv("HYPERAGENT_PROFILE", "default")
var DatabasePath = GetEnv("DATABASE_PATH", getDefaultDatabasePath("/tmp/hyperagent/hyperagent.db", Profile))

var file = loadFileConfig()

var Config = &Configuration{
	Profile:      Profile,
	DatabasePath: DatabasePath,

	HyperbolicAPIKey: GetEnv("HYPERBOLIC_API_KEY", ""),
	HyperbolicAPIURL: GetEnv("HYPERBOLIC_API_URL", orDefault(file.HyperbolicAPIURL, "https://api.hyperbolic.xyz")),

	LLMAPIKey:  GetEnv("OPENAI_API_KEY", ""),
	LLMAPIBase: GetEnv("OPENAI_API_BASE", orDefault(file.LLMAPIBase, "https://api.openai.com/v1")),
	Model:      GetEnv("HYPERAGENT_MODEL", orDefault(file.Model, "gpt-4o-mini")),

	DefaultSSHKeyPath: GetEnv("SSH_PRIVATE_KEY_PATH", getDefaultSSHKeyPath()),
	SSHDialTimeout:    10 * time.Second,
	ProbeTimeout:      5 * time.Second,

	AMQPURL:    GetEnv("AMQP_URL", file.AMQPURL),
	AuditQueue: GetEnv("AUDIT_QUEUE", orDefault(file.AuditQueue, "hyperagent-command-audit")),

	MaxIterations: 20,
	SessionWindow: 50,
	AutoInterval:  10 * time.Second,

	SecretsDir:        "./.secrets",
	JWTSecretPath:     "./.secrets/jwt.hex",
	NodeDataDir:       "./.ethereum",
	GethLogPath:       "./.ethereum/geth.log",
	LighthouseLogPath: "./.ethereum/lighthouse.log",
	LighthouseVersion: "v4.0.1",
	AuthRPCPort:       8551,
	ExecutionRPCPort:  8545,
	ConsensusAPIPort:  5052,
	ReadinessMaxWait:  5 * time.Second,
	ReadinessInterval: 500 * time.Millisecond,
}
