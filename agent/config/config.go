package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/edgelink-io/edgelink/pkg/log"
)

type TLSConfig struct {
	// RootCAs contains a path to root certificate authorities to validate
	// the TLS connection to the broker.
	//
	// Defaults to using the host root CAs.
	RootCAs string `json:"root_cas" yaml:"root_cas"`
}

func (c *TLSConfig) RegisterFlags(fs *pflag.FlagSet, prefix string) {
	prefix = prefix + ".tls."
	fs.StringVar(
		&c.RootCAs,
		prefix+"root-cas",
		c.RootCAs,
		`
A path to a certificate PEM file containing root certificiate authorities to
validate the TLS connection to the broker.

Defaults to using the host root CAs.`,
	)
}

func (c *TLSConfig) Load() (*tls.Config, error) {
	if c.RootCAs == "" {
		return nil, nil
	}

	caCert, err := os.ReadFile(c.RootCAs)
	if err != nil {
		return nil, fmt.Errorf("open root cas: %s: %w", c.RootCAs, err)
	}
	caCertPool := x509.NewCertPool()
	if ok := caCertPool.AppendCertsFromPEM(caCert); !ok {
		return nil, fmt.Errorf("parse root cas: %s", c.RootCAs)
	}
	return &tls.Config{
		RootCAs: caCertPool,
	}, nil
}

type ConnectConfig struct {
	// URL is the broker URL to connect to.
	URL string `json:"url" yaml:"url"`

	// Token is the device access token to authenticate with the broker.
	Token string `json:"token" yaml:"token"`

	TLS TLSConfig `json:"tls" yaml:"tls"`
}

func (c *ConnectConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("missing url")
	}
	if _, err := url.Parse(c.URL); err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	return nil
}

func (c *ConnectConfig) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(
		&c.URL,
		"connect.url",
		c.URL,
		`
The broker URL to connect to. Such as 'wss://broker.example.com:8933'.`,
	)

	fs.StringVar(
		&c.Token,
		"connect.token",
		c.Token,
		`
The device access token to authenticate with the broker.`,
	)

	c.TLS.RegisterFlags(fs, "connect")
}

type AdminConfig struct {
	// BindAddr is the address to bind to listen for incoming HTTP
	// connections.
	BindAddr string `json:"bind_addr" yaml:"bind_addr"`
}

func (c *AdminConfig) Validate() error {
	if c.BindAddr == "" {
		return fmt.Errorf("missing bind addr")
	}
	return nil
}

func (c *AdminConfig) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(
		&c.BindAddr,
		"admin.bind-addr",
		c.BindAddr,
		`
The host/port to bind the admin server to.

If the host is unspecified it defaults to all listeners, such as
'--admin.bind-addr :9122' will listen on '0.0.0.0:9122'.`,
	)
}

type Config struct {
	Connect ConnectConfig `json:"connect" yaml:"connect"`

	Admin AdminConfig `json:"admin" yaml:"admin"`

	Log log.Config `json:"log" yaml:"log"`

	// GracePeriod is the duration to wait for the admin server to
	// gracefully shut down.
	GracePeriod time.Duration `json:"grace_period" yaml:"grace_period"`
}

func Default() *Config {
	return &Config{
		Connect: ConnectConfig{
			URL: "ws://localhost:8933",
		},
		Admin: AdminConfig{
			BindAddr: ":9122",
		},
		Log: log.Config{
			Level: "info",
		},
		GracePeriod: time.Minute,
	}
}

func (c *Config) Validate() error {
	if err := c.Connect.Validate(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if err := c.Admin.Validate(); err != nil {
		return fmt.Errorf("admin: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if c.GracePeriod == 0 {
		return fmt.Errorf("missing grace period")
	}
	return nil
}

func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	c.Connect.RegisterFlags(fs)
	c.Admin.RegisterFlags(fs)
	c.Log.RegisterFlags(fs)
	fs.DurationVar(
		&c.GracePeriod,
		"grace-period",
		c.GracePeriod,
		`
Maximum duration after a shutdown signal is received to gracefully shut down
the admin server.`,
	)
}
