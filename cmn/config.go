package cmn

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const VERSION = "0.1.0"
const LOG_NAME = "memestake.log"
const CONFIG_NAME = "config.yaml"

var DataFolder = "data"
var AppName = "memestake"
var LogPath = LOG_NAME
var ConfPath = CONFIG_NAME

var ConfigChanged = false

type SContracts struct {
	StakingVault string `yaml:"staking_vault"` // native staking vault (M -> igM)
	ReceiptToken string `yaml:"receipt_token"` // igM, resolved with stM() when empty
	YieldVault   string `yaml:"yield_vault"`   // yield vault (igM -> vigM)
	YieldAsset   string `yaml:"yield_asset"`   // resolved with asset() when empty
	YieldShare   string `yaml:"yield_share"`   // resolved with lrt() when empty
	Strategy     string `yaml:"strategy"`      // reward strategy used by simulate
}

type SSymbols struct {
	Native     string `yaml:"native"`
	Receipt    string `yaml:"receipt"`
	YieldAsset string `yaml:"yield_asset"`
	YieldShare string `yaml:"yield_share"`
}

type SConfig struct {
	Verbosity    string        `yaml:"verbosity"`      // log verbosity
	Theme        string        `yaml:"theme"`          // UI theme
	ChainID      int           `yaml:"chain_id"`       // the only chain the app talks to
	ChainName    string        `yaml:"chain_name"`     // display name
	Currency     string        `yaml:"currency"`       // native currency symbol
	RPCURL       string        `yaml:"rpc_url"`        // http(s) json-rpc endpoint
	WSURL        string        `yaml:"ws_url"`         // optional websocket endpoint for new heads
	Explorer     string        `yaml:"explorer"`       // block explorer base url
	RPCRateLimit int           `yaml:"rpc_rate_limit"` // calls per second
	PollInterval time.Duration `yaml:"poll_interval"`  // read refresh interval
	ReceiptPoll  time.Duration `yaml:"receipt_poll"`   // receipt polling interval
	TxTimeout    time.Duration `yaml:"tx_timeout"`     // max wait for a receipt
	BusTimeout   time.Duration `yaml:"bus_timeout"`    // timeout for bus requests
	CacheSize    int           `yaml:"cache_size"`     // read cache entries
	SlippageBps  int           `yaml:"slippage_bps"`   // 0 = no bound
	UsePermit    bool          `yaml:"use_permit"`     // sign a permit instead of approve
	ConfirmTx    bool          `yaml:"confirm_tx"`     // ask before signing
	SoundFile    string        `yaml:"sound_file"`     // mp3 played on tx events
	MetricsAddr  string        `yaml:"metrics_addr"`   // prometheus listen address
	EmailAuthURL string        `yaml:"email_auth_url"` // embedded wallet service
	Wallet       string        `yaml:"wallet"`         // default wallet name
	Contracts    SContracts    `yaml:"contracts"`
	Symbols      SSymbols      `yaml:"symbols"`
}

var Config *SConfig = DefaultConfig()

func DefaultConfig() *SConfig {
	return &SConfig{
		Verbosity:    "debug",
		Theme:        "dark",
		ChainID:      43522,
		ChainName:    "Insectarium",
		Currency:     "M",
		RPCURL:       "https://rpc.insectarium.memecore.net",
		RPCRateLimit: 10,
		PollInterval: 5 * time.Second,
		ReceiptPoll:  time.Second,
		TxTimeout:    3 * time.Minute,
		BusTimeout:   3 * time.Minute,
		CacheSize:    512,
		Contracts: SContracts{
			YieldVault: "0x2c400fa1935fb12e94c6cba612ab046daa6268e4",
		},
		Symbols: SSymbols{
			Native:     "M",
			Receipt:    "igM",
			YieldAsset: "igM",
			YieldShare: "vigM",
		},
	}
}

// InitConfig prepares the data folder, the log file and the config.
// An empty dataDir selects the per-OS default.
func InitConfig(dataDir string) error {
	var err error

	if dataDir == "" {
		dataDir, err = GetDataFolder()
		if err != nil {
			return fmt.Errorf("error getting data folder: %w", err)
		}
	} else if err = os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("error creating data folder: %w", err)
	}
	DataFolder = dataDir

	LogPath = filepath.Join(DataFolder, LOG_NAME)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logFile, err := os.OpenFile(LogPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600) // truncate log file
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: logFile, NoColor: true})

	ConfPath = filepath.Join(DataFolder, CONFIG_NAME)
	err = RestoreConfig(ConfPath)
	if err != nil {
		log.Error().Err(err).Msg("error restoring config")
	}
	ApplyEnv(Config)
	SetVerbosity(Config.Verbosity)

	err = os.MkdirAll(WalletsFolder(), 0700)
	if err != nil {
		log.Error().Err(err).Msg("error creating wallet folder")
	}

	log.Trace().Msg("Started")
	return nil
}

func SetVerbosity(v string) {
	level, err := zerolog.ParseLevel(v)
	if err != nil || v == "" {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Info().Msgf("Log level: %s", level)
}

func WalletsFolder() string {
	return filepath.Join(DataFolder, "wallets")
}

func SaveConfig() error {
	if !ConfigChanged {
		return nil
	}

	data, err := yaml.Marshal(Config)
	if err != nil {
		return err
	}

	err = os.WriteFile(ConfPath, data, 0600)
	if err != nil {
		return err
	}

	ConfigChanged = false
	return nil
}

func RestoreConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// it is ok. Let's use default config
			log.Warn().Msgf("no config file found: %v", err)
			return nil
		}
		return err
	}

	return yaml.Unmarshal(data, Config)
}

// ApplyEnv overrides config values from MEMESTAKE_* environment variables.
func ApplyEnv(c *SConfig) {
	v := viper.New()
	v.SetEnvPrefix("MEMESTAKE")
	v.AutomaticEnv()

	for key, dst := range map[string]*string{
		"rpc_url":        &c.RPCURL,
		"ws_url":         &c.WSURL,
		"wallet":         &c.Wallet,
		"verbosity":      &c.Verbosity,
		"email_auth_url": &c.EmailAuthURL,
		"metrics_addr":   &c.MetricsAddr,
	} {
		if s := v.GetString(key); s != "" {
			*dst = s
		}
	}

	if id := v.GetInt("chain_id"); id != 0 {
		c.ChainID = id
	}
}

func GetDataFolder() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			return "", fmt.Errorf("LOCALAPPDATA environment variable is not set")
		}
		dataDir = filepath.Join(localAppData, AppName)
	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("error getting home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, "Library", "Application Support", AppName)
	case "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("error getting home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, "."+AppName)
	default:
		return "", fmt.Errorf("unsupported operating system")
	}

	err := os.MkdirAll(dataDir, 0700)
	if err != nil {
		return "", fmt.Errorf("error creating data directory: %w", err)
	}

	return dataDir, nil
}
