package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	allowed := []string{"-a", "-config"}

	t.Run("separate value is kept", func(t *testing.T) {
		got := FilterArgs([]string{"-a", "127.0.0.1:9090", "-x", "1"}, allowed)
		assert.Equal(t, []string{"-a", "127.0.0.1:9090"}, got)
	})

	t.Run("equals form is kept whole", func(t *testing.T) {
		got := FilterArgs([]string{"-config=conf.json", "-y=2"}, allowed)
		assert.Equal(t, []string{"-config=conf.json"}, got)
	})

	t.Run("unknown flags are dropped", func(t *testing.T) {
		got := FilterArgs([]string{"-z", "3"}, allowed)
		assert.Empty(t, got)
	})

	t.Run("flag followed by another flag keeps no value", func(t *testing.T) {
		got := FilterArgs([]string{"-a", "-config=conf.json"}, allowed)
		assert.Equal(t, []string{"-a", "-config=conf.json"}, got)
	})
}

func TestConfigFileFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("no flags", func(t *testing.T) {
		os.Args = []string{"testbin"}
		assert.Empty(t, ConfigFileFlags())
	})

	t.Run("short form", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", "/path/short.json"}
		assert.Equal(t, "/path/short.json", ConfigFileFlags())
	})

	t.Run("long form", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", "/path/long.json"}
		assert.Equal(t, "/path/long.json", ConfigFileFlags())
	})

	t.Run("unrelated flags are ignored", func(t *testing.T) {
		os.Args = []string{"testbin", "-x", "1", "-y", "2"}
		assert.Empty(t, ConfigFileFlags())
	})
}
