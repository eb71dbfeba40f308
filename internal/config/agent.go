package config

import (
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vshulcz/hostpulse/internal/misc"
)

const (
	defaultAddress         = "http://localhost:9090/api/v1/write"
	defaultIntervalSeconds = 15
)

// AgentConfig is everything the agent binary needs: where to push, how
// often, and optional basic-auth credentials.
type AgentConfig struct {
	Address  string
	Username string
	Password string
	Interval time.Duration
}

type fileConfig struct {
	Address  string `toml:"address"`
	Interval int    `toml:"interval"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// LoadAgentConfig resolves the agent configuration with precedence
// ENV > CLI > config file > defaults.
func LoadAgentConfig(args []string, out io.Writer) (AgentConfig, error) {
	if out == nil {
		out = io.Discard
	}

	fs := flag.NewFlagSet("agent", flag.ContinueOnError)
	fs.SetOutput(out)

	var addrOpt string
	var intervalOpt int
	var userOpt string
	var passOpt string
	var fileOpt string

	fs.StringVar(&addrOpt, "a", "", fmt.Sprintf("remote-write endpoint URL, default: %s", defaultAddress))
	fs.IntVar(&intervalOpt, "i", 0, fmt.Sprintf("report interval in seconds, default: %d", defaultIntervalSeconds))
	fs.StringVar(&userOpt, "u", "", "basic auth username")
	fs.StringVar(&passOpt, "p", "", "basic auth password")
	fs.StringVar(&fileOpt, "c", "", "path to TOML config file")

	if err := fs.Parse(args); err != nil {
		return AgentConfig{}, err
	}

	var fc fileConfig
	if path := FromEnvOrFlag("CONFIG", fileOpt, ""); path != "" {
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return AgentConfig{}, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	addr := FromEnvOrFlag("ADDRESS", addrOpt, fc.Address)
	if addr == "" {
		addr = defaultAddress
	}
	addr = normalizeAddressURL(addr)
	if u, err := url.ParseRequestURI(addr); err != nil || u.Host == "" {
		return AgentConfig{}, fmt.Errorf("invalid remote-write address: %q", addr)
	}

	interval := misc.GetDuration("REPORT_INTERVAL", 0)
	if interval == 0 && strings.TrimSpace(os.Getenv("REPORT_INTERVAL")) == "" {
		switch {
		case intervalOpt > 0:
			interval = time.Duration(intervalOpt) * time.Second
		case fc.Interval > 0:
			interval = time.Duration(fc.Interval) * time.Second
		default:
			interval = defaultIntervalSeconds * time.Second
		}
	}
	if interval <= 0 {
		return AgentConfig{}, fmt.Errorf("report interval must be > 0, got %v", interval)
	}

	user := FromEnvOrFlag("RW_USERNAME", userOpt, fc.Username)
	pass := FromEnvOrFlag("RW_PASSWORD", passOpt, fc.Password)
	if user == "" && pass != "" {
		return AgentConfig{}, fmt.Errorf("basic auth password set without a username")
	}

	return AgentConfig{
		Address:  addr,
		Username: user,
		Password: pass,
		Interval: interval,
	}, nil
}

func normalizeAddressURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultAddress
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s
	}
	if strings.HasPrefix(s, ":") {
		return "http://localhost" + s
	}
	return "http://" + s
}
