package config

import (
	"strings"
	"testing"
)

func TestDSNValuePrecedence(t *testing.T) {
	c := &AppConfig{DSN: "user:pw@tcp(db:3306)/keyward?parseTime=True"}
	c.Database.Host = "ignored"
	if got := c.DSNValue(); got != "user:pw@tcp(db:3306)/keyward?parseTime=True" {
		t.Fatalf("explicit dsn not honored: %s", got)
	}
}

func TestDSNValueAssembled(t *testing.T) {
	c := &AppConfig{}
	c.Database = DatabaseRuntimeConfig{
		Host: "db.internal", Port: 3307, User: "kw", Password: "s3cret", Name: "licenses",
	}
	dsn := c.DSNValue()
	for _, part := range []string{"kw:s3cret@tcp(db.internal:3307)/licenses", "charset=utf8mb4", "parseTime=True"} {
		if !strings.Contains(dsn, part) {
			t.Fatalf("dsn %q missing %q", dsn, part)
		}
	}
}

func TestRedisURLValueAssembled(t *testing.T) {
	c := &AppConfig{}
	c.Redis = RedisRuntimeConfig{Host: "cache", Port: 6380, Password: "pw", DB: 2}
	url := c.RedisURLValue()
	if !strings.HasPrefix(url, "redis://") || !strings.Contains(url, "cache:6380/2") {
		t.Fatalf("unexpected redis url: %s", url)
	}
}

func TestDefaultsApplied(t *testing.T) {
	c := &AppConfig{}
	c.applyDefaults()
	if c.Port != defaultPort || !c.IsDev() {
		t.Fatalf("defaults not applied: %+v", c)
	}
}
