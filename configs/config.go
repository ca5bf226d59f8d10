package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout  time.Duration `koanf:"read_timeout"`
		WriteTimeout time.Duration `koanf:"write_timeout"`
		IdleTimeout  time.Duration `koanf:"idle_timeout"`
	} `koanf:"http"`

	MySQL struct {
		DSN             string        `koanf:"dsn"`
		MaxOpenConns    int           `koanf:"max_open_conns"`
		MaxIdleConns    int           `koanf:"max_idle_conns"`
		ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	} `koanf:"mysql"`

	Redis struct {
		Addr     string        `koanf:"addr"`
		Password string        `koanf:"password"`
		CacheTTL time.Duration `koanf:"cache_ttl"`
	} `koanf:"redis"`

	Rabbit struct {
		URL      string `koanf:"url"`
		Exchange string `koanf:"exchange"`
	} `koanf:"rabbitmq"`

	Gateway struct {
		BaseURL      string        `koanf:"base_url"`
		NotifyDomain string        `koanf:"notify_domain"`
		AppID        string        `koanf:"app_id"`
		MchID        string        `koanf:"mch_id"`
		MchSerialNo  string        `koanf:"mch_serial_no"`
		Timeout      time.Duration `koanf:"timeout"`
	} `koanf:"gateway"`

	Reconcile struct {
		Interval time.Duration `koanf:"interval"`
		Grace    time.Duration `koanf:"grace"`
	} `koanf:"reconcile"`

	Security struct {
		JWTSecret string        `koanf:"jwt_secret"`
		Issuer    string        `koanf:"issuer"`
		Audience  string        `koanf:"audience"`
		TTL       time.Duration `koanf:"ttl"`
	} `koanf:"security"`

	Crypto struct {
		APIv3KeyB64 string `koanf:"apiv3_key_b64url"`
		RSAPubPEM   string `koanf:"rsa_pub_pem"`
		RSAPriPEM   string `koanf:"rsa_pri_pem"`
	} `koanf:"crypto"`
}

func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")
	// 1) base
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// 2) env overlay (dev/staging/prod). Optional: allow missing for local runs.
	_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())

	// 3) environment variables override (prefix PAYAPI_, nested with __)
	// e.g. PAYAPI_MYSQL__DSN, PAYAPI_CRYPTO__APIV3_KEY_B64URL
	if err := k.Load(env.Provider("PAYAPI_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "PAYAPI_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	if c.MySQL.DSN == "" {
		return fmt.Errorf("mysql.dsn required")
	}
	if c.Gateway.BaseURL == "" || c.Gateway.MchID == "" {
		return fmt.Errorf("gateway.base_url and gateway.mch_id required")
	}
	if c.Reconcile.Grace <= 0 {
		return fmt.Errorf("reconcile.grace must be positive")
	}
	return nil
}
