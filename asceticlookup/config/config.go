package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const EnvPrefix = "LOOKUP"

type Database struct {
	Dialect  string `mapstructure:"dialect"`
	Driver   string `mapstructure:"driver"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ConnString renders dialect[+driver]://username[:password][@host][:port]/name[?sslmode=mode].
// Every dialect but sqlite needs username, password, host and port.
func (d Database) ConnString() (string, error) {
	if d.Dialect == "" {
		return "", errors.New("database dialect is not set")
	}
	if d.Dialect != "sqlite" && (d.Username == "" || d.Password == "" || d.Host == "" || d.Port == "") {
		return "", fmt.Errorf(
			"except for sqlite, username, password, host and port must be supplied: "+
				"username: %q; host: %q; port: %q; password set: %t",
			d.Username, d.Host, d.Port, d.Password != "",
		)
	}

	var b strings.Builder
	b.WriteString(d.Dialect)
	if d.Driver != "" {
		b.WriteString("+" + d.Driver)
	}
	b.WriteString("://")
	if d.Username != "" {
		if d.Password != "" {
			b.WriteString(url.UserPassword(d.Username, d.Password).String())
		} else {
			b.WriteString(url.User(d.Username).String())
		}
	}
	if d.Host != "" {
		if d.Username != "" {
			b.WriteString("@")
		}
		b.WriteString(d.Host)
	}
	if d.Port != "" {
		b.WriteString(":" + d.Port)
	}
	b.WriteString("/" + d.Name)
	if d.SSLMode != "" {
		b.WriteString("?sslmode=" + url.QueryEscape(d.SSLMode))
	}
	return b.String(), nil
}

type Log struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type Config struct {
	Schema   string   `mapstructure:"schema"`
	Database Database `mapstructure:"database"`
	Log      Log      `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("schema", "schema.yaml")
	v.SetDefault("database.dialect", "postgres")
	v.SetDefault("database.driver", "")
	v.SetDefault("database.username", "devel")
	v.SetDefault("database.password", "devel")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "devel_lookup")
	v.SetDefault("database.sslmode", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// Load reads configuration from the file at path, when given, and from
// LOOKUP_* environment variables, e.g. LOOKUP_DATABASE_HOST.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config \"%s\"", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	return &cfg, nil
}
