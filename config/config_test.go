package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	t.Setenv("CHECK_INTERVAL", "")
	t.Setenv("CHECK_DELAY", "")
	t.Setenv("FETCH_TIMEOUT", "")
	t.Setenv("DELIVERY_POLICY", "")
	t.Setenv("METRICS_PORT", "")
	t.Setenv("SEND_TIMEOUT", "")

	assert.Equal(t, 60*time.Second, GetDuration("check_interval"))
	assert.Equal(t, 10*time.Second, GetDuration("check_delay"))
	assert.Equal(t, 10*time.Second, GetDuration("fetch_timeout"))
	assert.Equal(t, "drop", GetString("delivery_policy"))
	assert.Equal(t, 9090, GetInt("metrics_port"))
	assert.Equal(t, 10*time.Second, GetDuration("send_timeout"))
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("CHECK_INTERVAL", "90s")
	t.Setenv("DELIVERY_POLICY", "retry")
	t.Setenv("METRICS_PORT", "9191")
	t.Setenv("DEBUG", "true")

	assert.Equal(t, 90*time.Second, GetDuration("check_interval"))
	assert.Equal(t, "retry", GetString("delivery_policy"))
	assert.Equal(t, 9191, GetInt("metrics_port"))
	assert.True(t, GetBool("debug"))
}
