package postgres

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ignite/user-ingest/internal/domain"
)

const (
	defaultPort           = 5432
	defaultSSLMode        = "require"
	defaultConnectTimeout = 30 * time.Second
	defaultMaxOpenConns   = 5
)

var validate = validator.New()

// Config holds the connection parameters for the users database.
type Config struct {
	Host           string `validate:"required"`
	Port           int    `validate:"min=1,max=65535"`
	Name           string `validate:"required"`
	User           string `validate:"required"`
	Password       string `validate:"required"`
	SSLMode        string `validate:"omitempty,oneof=disable require verify-ca verify-full"`
	ConnectTimeout time.Duration
	MaxOpenConns   int `validate:"min=0"`
}

func (c Config) withDefaults() Config {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.SSLMode == "" {
		c.SSLMode = defaultSSLMode
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = defaultMaxOpenConns
	}
	return c
}

// Validate reports missing or malformed parameters as an error wrapping
// domain.ErrConfiguration.
func (c Config) Validate() error {
	if err := validate.Struct(c.withDefaults()); err != nil {
		return fmt.Errorf("%w: database credentials are not fully configured: %v", domain.ErrConfiguration, err)
	}
	return nil
}

// DSN renders the config as a lib/pq connection URL.
func (c Config) DSN() string {
	c = c.withDefaults()
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	q.Set("connect_timeout", strconv.Itoa(int(c.ConnectTimeout/time.Second)))
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}
