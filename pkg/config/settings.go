// Package config holds the docchat settings and their viper bindings.
package config

import (
	"strings"
	"time"

	"github.com/go-go-golems/docchat/pkg/api"
	"github.com/go-go-golems/docchat/pkg/chat"
	"github.com/go-go-golems/docchat/pkg/notifications"
	"github.com/go-go-golems/docchat/pkg/security"
	"github.com/go-go-golems/docchat/pkg/typewriter"
	"github.com/go-go-golems/docchat/pkg/voice"
	"github.com/huandu/go-clone"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "docchat"

type VoiceSettings struct {
	Language string `mapstructure:"language" yaml:"language"`
	// Command is the speech-to-text program. It prints the transcript on
	// stdout; "{lang}" in Args is replaced by Language.
	Command string   `mapstructure:"command" yaml:"command"`
	Args    []string `mapstructure:"args" yaml:"args"`
}

type TypewriterSettings struct {
	Speed time.Duration `mapstructure:"speed" yaml:"speed"`
}

type Settings struct {
	BackendURL      string                     `mapstructure:"backend-url" yaml:"backend-url"`
	BackendSecurity security.BackendURLOptions `mapstructure:"backend-security" yaml:"backend-security"`
	Timeout         time.Duration              `mapstructure:"timeout" yaml:"timeout"`
	ProbeInterval   time.Duration              `mapstructure:"probe-interval" yaml:"probe-interval"`
	Chat            chat.Config                `mapstructure:"chat" yaml:"chat"`
	Notifications   notifications.Config       `mapstructure:"notifications" yaml:"notifications"`
	Voice           VoiceSettings              `mapstructure:"voice" yaml:"voice"`
	Typewriter      TypewriterSettings         `mapstructure:"typewriter" yaml:"typewriter"`
}

func Default() *Settings {
	return &Settings{
		BackendURL:      api.DefaultBackendURL,
		BackendSecurity: security.LocalDevelopment(),
		Timeout:         api.DefaultTimeout,
		ProbeInterval:   15 * time.Second,
		Chat:            chat.DefaultConfig(),
		Notifications:   notifications.DefaultConfig(),
		Voice: VoiceSettings{
			Language: voice.DefaultLanguage,
			Args:     []string{},
		},
		Typewriter: TypewriterSettings{Speed: typewriter.DefaultSpeed},
	}
}

// SetDefaults registers every key with its default so that environment
// variables and Unmarshal see the full tree.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("backend-url", d.BackendURL)
	v.SetDefault("backend-security.allow-http", d.BackendSecurity.AllowHTTP)
	v.SetDefault("backend-security.allow-local-networks", d.BackendSecurity.AllowLocalNetworks)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("probe-interval", d.ProbeInterval)
	v.SetDefault("chat.retry.max_retries", d.Chat.Retry.MaxRetries)
	v.SetDefault("chat.retry.base_delay", d.Chat.Retry.BaseDelay)
	v.SetDefault("chat.send_retries", d.Chat.SendRetries)
	v.SetDefault("chat.default_model", d.Chat.DefaultModel)
	v.SetDefault("chat.session_title", d.Chat.SessionTitle)
	v.SetDefault("chat.reload_delay", d.Chat.ReloadDelay)
	v.SetDefault("notifications.error_delay", d.Notifications.ErrorDelay)
	v.SetDefault("notifications.success_delay", d.Notifications.SuccessDelay)
	v.SetDefault("notifications.info_delay", d.Notifications.InfoDelay)
	v.SetDefault("voice.language", d.Voice.Language)
	v.SetDefault("voice.command", d.Voice.Command)
	v.SetDefault("voice.args", d.Voice.Args)
	v.SetDefault("typewriter.speed", d.Typewriter.Speed)
}

// ConfigureEnv maps keys to DOCCHAT_ variables, "chat.send_retries" becoming
// DOCCHAT_CHAT_SEND_RETRIES.
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (*Settings, error) {
	s := Default()
	if err := v.Unmarshal(s); err != nil {
		return nil, errors.Wrap(err, "could not decode settings")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) Validate() error {
	if err := security.ValidateBackendURL(s.BackendURL, s.BackendSecurity); err != nil {
		return err
	}
	if s.Timeout <= 0 {
		return errors.Errorf("timeout must be positive, got %s", s.Timeout)
	}
	if s.ProbeInterval < 0 {
		return errors.Errorf("probe interval must not be negative, got %s", s.ProbeInterval)
	}
	if s.Chat.Retry.MaxRetries < 0 || s.Chat.SendRetries < 0 {
		return errors.New("retry counts must not be negative")
	}
	if s.Chat.Retry.BaseDelay < 0 {
		return errors.Errorf("retry base delay must not be negative, got %s", s.Chat.Retry.BaseDelay)
	}
	if s.Notifications.ErrorDelay <= 0 || s.Notifications.SuccessDelay <= 0 || s.Notifications.InfoDelay <= 0 {
		return errors.New("notification delays must be positive")
	}
	if s.Typewriter.Speed <= 0 {
		return errors.Errorf("typewriter speed must be positive, got %s", s.Typewriter.Speed)
	}
	if strings.TrimSpace(s.Voice.Language) == "" {
		return errors.New("voice language must not be empty")
	}
	return nil
}

func (s *Settings) Clone() *Settings {
	return clone.Clone(s).(*Settings)
}

func (s *Settings) ToYAML() ([]byte, error) {
	return yaml.Marshal(s)
}
