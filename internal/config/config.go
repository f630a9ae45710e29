// Package config parses the arsenal command line. Every flag takes its default
// from an ARSENAL_* environment variable, and a .env file in the working
// directory is loaded into the environment first.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the runtime configuration of the server.
type Config struct {
	DBPath         string
	Addr           string
	AdminUser      string
	LogPath        string
	RequireReceipt bool
	LedgerTimeout  time.Duration
	TokenTTL       time.Duration
	CORSOrigins    []string
	AMQPURL        string
	AMQPExchange   string
}

// Usage is printed for -h.
const Usage = `Usage: arsenal [flags]

Flags:
  -d, -db <path>            SQLite database path (default: arsenal.sqlite3)
  -a, -addr <host:port>     listen address (default: :8080)
  -u, -user <name>          admin username on first run (default: Admin)
  -l, -log <path>           log file path (default: no file, stdout/stderr only)
  -receipt                  require the destination to confirm transfer receipt
  -ledger-timeout <dur>     bound on each ledger mutation (default: 5s)
  -token-ttl <dur>          lifetime of issued tokens (default: 12h)
  -cors-origins <list>      comma separated origins allowed to call the API
  -amqp-url <url>           RabbitMQ URL for ledger events (default: disabled)
  -amqp-exchange <name>     topic exchange for ledger events (default: arsenal.ledger)
  -h, -help                 show this help and exit

Every flag can also be set with ARSENAL_<NAME>, e.g. ARSENAL_DB or
ARSENAL_LEDGER_TIMEOUT, or in a .env file.
`

// Load reads .env (if present) and parses args. It returns flag.ErrHelp when
// help was requested.
func Load(args []string, output io.Writer) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return Parse(args, output)
}

// Parse parses args against the current environment.
func Parse(args []string, output io.Writer) (*Config, error) {
	fset := flag.NewFlagSet("arsenal", flag.ContinueOnError)
	fset.SetOutput(output)
	fset.Usage = func() { fmt.Fprint(output, Usage) }

	cfg := &Config{}
	var origins string

	dbPath := env("ARSENAL_DB", "arsenal.sqlite3")
	fset.StringVar(&cfg.DBPath, "db", dbPath, "")
	fset.StringVar(&cfg.DBPath, "d", dbPath, "")

	addr := env("ARSENAL_ADDR", ":8080")
	fset.StringVar(&cfg.Addr, "addr", addr, "")
	fset.StringVar(&cfg.Addr, "a", addr, "")

	user := env("ARSENAL_USER", "Admin")
	fset.StringVar(&cfg.AdminUser, "user", user, "")
	fset.StringVar(&cfg.AdminUser, "u", user, "")

	logPath := env("ARSENAL_LOG", "")
	fset.StringVar(&cfg.LogPath, "log", logPath, "")
	fset.StringVar(&cfg.LogPath, "l", logPath, "")

	receipt, err := envBool("ARSENAL_REQUIRE_RECEIPT", false)
	if err != nil {
		return nil, err
	}
	fset.BoolVar(&cfg.RequireReceipt, "receipt", receipt, "")

	timeout, err := envDuration("ARSENAL_LEDGER_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	fset.DurationVar(&cfg.LedgerTimeout, "ledger-timeout", timeout, "")

	ttl, err := envDuration("ARSENAL_TOKEN_TTL", 12*time.Hour)
	if err != nil {
		return nil, err
	}
	fset.DurationVar(&cfg.TokenTTL, "token-ttl", ttl, "")

	fset.StringVar(&origins, "cors-origins", env("ARSENAL_CORS_ORIGINS", ""), "")
	fset.StringVar(&cfg.AMQPURL, "amqp-url", env("ARSENAL_AMQP_URL", ""), "")
	fset.StringVar(&cfg.AMQPExchange, "amqp-exchange", env("ARSENAL_AMQP_EXCHANGE", "arsenal.ledger"), "")

	if err := fset.Parse(args); err != nil {
		return nil, err
	}
	if fset.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fset.Arg(0))
	}

	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	if cfg.LedgerTimeout <= 0 {
		return nil, errors.New("ledger timeout must be positive")
	}
	if cfg.TokenTTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}

	return cfg, nil
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
