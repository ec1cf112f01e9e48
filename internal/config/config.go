package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type WalletConfig struct {
	RPCURL          string `yaml:"rpc_url"`
	Key             string `yaml:"key"`               // Hex secp256k1 key; empty means the RPC endpoint signs
	ExpectedChainID string `yaml:"expected_chain_id"` // Hex chain id, e.g. "0x4"
	NetworkName     string `yaml:"network_name"`
}

type ContractConfig struct {
	Address        string        `yaml:"address"`
	TotalMintCount uint64        `yaml:"total_mint_count"`
	PollInterval   time.Duration `yaml:"poll_interval"` // eth_getLogs fallback when the transport cannot subscribe
	ExplorerURL    string        `yaml:"explorer_url"`
}

type PanelConfig struct {
	ToastDuration        time.Duration `yaml:"toast_duration"`
	FailureToastDuration time.Duration `yaml:"failure_toast_duration"`
}

type LinksConfig struct {
	TwitterHandle string `yaml:"twitter_handle"`
	OpenSeaURL    string `yaml:"opensea_url"`
}

type APIConfig struct {
	Port int    `yaml:"port"`
	Bind string `yaml:"bind"`
}

type Config struct {
	DataDir  string         `yaml:"data_dir"`
	Wallet   WalletConfig   `yaml:"wallet"`
	Contract ContractConfig `yaml:"contract"`
	Panel    PanelConfig    `yaml:"panel"`
	Links    LinksConfig    `yaml:"links"`
	API      APIConfig      `yaml:"api"`
}

func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DataDir: filepath.Join(home, ".mintpanel"),
		Wallet: WalletConfig{
			RPCURL:          "http://127.0.0.1:8545",
			ExpectedChainID: "0x4",
			NetworkName:     "Rinkeby Test",
		},
		Contract: ContractConfig{
			Address:        "0x53FfC2FFc01184cBa366E84dE60FF988B2C27526",
			TotalMintCount: 15,
			PollInterval:   4 * time.Second,
			ExplorerURL:    "https://rinkeby.etherscan.io",
		},
		Panel: PanelConfig{
			ToastDuration:        5 * time.Second,
			FailureToastDuration: 1 * time.Second,
		},
		Links: LinksConfig{
			TwitterHandle: "huertaarielcsw",
			OpenSeaURL:    "https://testnets.opensea.io/collection/squarenft-ykq9erwesl",
		},
		API: APIConfig{
			Port: 8415,
			Bind: "127.0.0.1",
		},
	}
}

// Load reads a YAML config file and merges it with defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// No config file, use defaults + env overlay
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Expand ~ in data_dir
	if len(cfg.DataDir) > 0 && cfg.DataDir[0] == '~' {
		home, _ := os.UserHomeDir()
		cfg.DataDir = filepath.Join(home, cfg.DataDir[1:])
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays environment variables on top of config values.
func (c *Config) applyEnv() {
	if v := os.Getenv("MINTPANEL_RPC_URL"); v != "" {
		c.Wallet.RPCURL = v
	}
	if v := os.Getenv("MINTPANEL_WALLET_KEY"); v != "" {
		c.Wallet.Key = v
	}
	if v := os.Getenv("MINTPANEL_CHAIN_ID"); v != "" {
		c.Wallet.ExpectedChainID = v
	}
	if v := os.Getenv("MINTPANEL_CONTRACT_ADDRESS"); v != "" {
		c.Contract.Address = v
	}
	if v := os.Getenv("MINTPANEL_DATA_DIR"); v != "" {
		c.DataDir = v
	}
}

// LoadFromBytes parses YAML config from bytes and merges with defaults.
// Used by the mobile package where there's no config file on disk.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// DBPath returns the full path to the SQLite journal.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "mintpanel.db")
}

// APIURLs lists where a local client should look for the daemon's HTTP API:
// the configured port, then the port+1 fallback the server takes when the
// configured one is busy.
func (c *Config) APIURLs() []string {
	host := c.API.Bind
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	urls := make([]string, 0, 2)
	for _, port := range []int{c.API.Port, c.API.Port + 1} {
		urls = append(urls, fmt.Sprintf("http://%s", net.JoinHostPort(host, strconv.Itoa(port))))
	}
	return urls
}

// TwitterURL is the profile link shown in the footer.
func (l LinksConfig) TwitterURL() string {
	return "https://twitter.com/" + l.TwitterHandle
}
