package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newViper(t *testing.T, configYAML string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	ConfigureEnv(v)
	if configYAML != "" {
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBufferString(configYAML)))
	}
	return v
}

func TestDefaults(t *testing.T) {
	s, err := Load(newViper(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8001", s.BackendURL)
	assert.Equal(t, 30*time.Second, s.Timeout)
	assert.Equal(t, 2, s.Chat.Retry.MaxRetries)
	assert.Equal(t, time.Second, s.Chat.Retry.BaseDelay)
	assert.Equal(t, 0, s.Chat.SendRetries)
	assert.Equal(t, "claude-3-opus-20240229", s.Chat.DefaultModel)
	assert.Equal(t, 7*time.Second, s.Notifications.ErrorDelay)
	assert.Equal(t, 4*time.Second, s.Notifications.SuccessDelay)
	assert.Equal(t, "ur-PK", s.Voice.Language)
	assert.Equal(t, 15*time.Millisecond, s.Typewriter.Speed)
	assert.Equal(t, 15*time.Second, s.ProbeInterval)
}

func TestConfigFile(t *testing.T) {
	s, err := Load(newViper(t, `
backend-url: https://docs.example.com
timeout: 10s
chat:
  send_retries: 1
  retry:
    max_retries: 4
voice:
  language: en-US
  command: whisper-listen
  args: ["--lang", "{lang}"]
`))
	require.NoError(t, err)
	assert.Equal(t, "https://docs.example.com", s.BackendURL)
	assert.Equal(t, 10*time.Second, s.Timeout)
	assert.Equal(t, 1, s.Chat.SendRetries)
	assert.Equal(t, 4, s.Chat.Retry.MaxRetries)
	assert.Equal(t, time.Second, s.Chat.Retry.BaseDelay)
	assert.Equal(t, "whisper-listen", s.Voice.Command)
	assert.Equal(t, []string{"--lang", "{lang}"}, s.Voice.Args)
}

func TestEnvironment(t *testing.T) {
	t.Setenv("DOCCHAT_BACKEND_URL", "http://10.0.0.2:9000")
	t.Setenv("DOCCHAT_CHAT_SEND_RETRIES", "3")
	s, err := Load(newViper(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.2:9000", s.BackendURL)
	assert.Equal(t, 3, s.Chat.SendRetries)
}

func TestValidate(t *testing.T) {
	s := Default()
	s.BackendURL = "not a url"
	assert.Error(t, s.Validate())

	s = Default()
	s.BackendURL = "http://docs.example.com"
	s.BackendSecurity.AllowHTTP = false
	assert.Error(t, s.Validate())

	s = Default()
	s.Typewriter.Speed = 0
	assert.Error(t, s.Validate())

	s = Default()
	s.Chat.SendRetries = -1
	assert.Error(t, s.Validate())

	_, err := Load(newViper(t, "timeout: 0s\n"))
	assert.Error(t, err)
}

func TestCloneAndYAML(t *testing.T) {
	s := Default()
	s.Voice.Args = []string{"a"}
	c := s.Clone()
	c.Voice.Args[0] = "b"
	assert.Equal(t, "a", s.Voice.Args[0])

	b, err := s.ToYAML()
	require.NoError(t, err)
	var decoded Settings
	require.NoError(t, yaml.Unmarshal(b, &decoded))
	assert.Equal(t, s.Timeout, decoded.Timeout)
	assert.Equal(t, s.Chat.DefaultModel, decoded.Chat.DefaultModel)
}
