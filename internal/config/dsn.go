package config

import (
	"fmt"
	"net"
	neturl "net/url"
	"strconv"
	"strings"
)

// DSNValue resolves the MySQL DSN: an explicit top-level dsn wins, then the
// database block's dsn, then one assembled from its parts with defaults.
func (c *AppConfig) DSNValue() string {
	if v := strings.TrimSpace(c.DSN); v != "" {
		return v
	}
	return c.Database.dsnValue()
}

func (c DatabaseRuntimeConfig) dsnValue() string {
	if v := strings.TrimSpace(c.DSN); v != "" {
		return v
	}

	host := strings.TrimSpace(c.Host)
	if host == "" {
		host = defaultDBHost
	}
	port := c.Port
	if port == 0 {
		port = defaultDBPort
	}
	user := strings.TrimSpace(c.User)
	if user == "" {
		user = defaultDBUser
	}
	password := strings.TrimSpace(c.Password)
	if password == "" {
		password = defaultDBPassword
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = defaultDBName
	}
	charset := strings.TrimSpace(c.Charset)
	if charset == "" {
		charset = defaultDBCharset
	}
	loc := strings.TrimSpace(c.Loc)
	if loc == "" {
		loc = defaultDBLoc
	}

	params := neturl.Values{}
	for key, value := range c.Params {
		k := strings.TrimSpace(key)
		v := strings.TrimSpace(value)
		if k != "" && v != "" {
			params.Set(k, v)
		}
	}
	if params.Get("charset") == "" {
		params.Set("charset", charset)
	}
	if params.Get("parseTime") == "" {
		params.Set("parseTime", "True")
	}
	if params.Get("loc") == "" {
		params.Set("loc", loc)
	}

	return fmt.Sprintf("%s:%s@tcp(%s)/%s?%s",
		user, password, net.JoinHostPort(host, strconv.Itoa(port)), name, params.Encode())
}

// RedisURLValue resolves the Redis connection URL, assembling one from parts
// when no explicit URL is configured.
func (c *AppConfig) RedisURLValue() string {
	if v := strings.TrimSpace(c.RedisURL); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.Redis.URL); v != "" {
		return v
	}

	host := strings.TrimSpace(c.Redis.Host)
	if host == "" {
		host = defaultRedisHost
	}
	port := c.Redis.Port
	if port == 0 {
		port = defaultRedisPort
	}

	u := neturl.URL{
		Scheme: "redis",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + strconv.Itoa(c.Redis.DB),
	}
	if c.Redis.Username != "" || c.Redis.Password != "" {
		u.User = neturl.UserPassword(c.Redis.Username, c.Redis.Password)
	}
	return u.String()
}
