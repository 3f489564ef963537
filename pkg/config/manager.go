// Package config loads the Bootstrap configuration from defaults, an
// optional bootstrap.yaml, environment variables, and CLI flags, in that
// priority order.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/jinzhu/copier"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/platform-mesh/bootstrap/pkg/apis/bootstrap/v1alpha1"
	"github.com/platform-mesh/bootstrap/pkg/ui/notify"
	"github.com/platform-mesh/bootstrap/pkg/ui/timer"
)

const (
	configName = "bootstrap"

	// FlagLatest selects the latest release channel.
	FlagLatest = "latest"
	// FlagPrerelease selects the prerelease channel. Wins over FlagLatest
	// when both are set.
	FlagPrerelease = "prerelease"
)

// Manager loads and caches the Bootstrap configuration.
type Manager struct {
	Viper          *viper.Viper
	Config         *v1alpha1.Bootstrap
	Writer         io.Writer
	fieldSelectors []FieldSelector
	command        *cobra.Command
	configLoaded   bool
}

// NewManager creates a configuration manager with the given field
// selectors.
func NewManager(writer io.Writer, fieldSelectors ...FieldSelector) *Manager {
	return &Manager{
		Viper:          initializeViper(),
		Config:         v1alpha1.NewBootstrap(),
		Writer:         writer,
		fieldSelectors: fieldSelectors,
	}
}

// NewCommandManager constructs a Manager bound to the given Cobra command.
// It registers flags for the supplied field selectors plus the channel
// shorthands, and writes notifications to the command's output writer.
func NewCommandManager(cmd *cobra.Command, selectors []FieldSelector) *Manager {
	manager := NewManager(cmd.OutOrStdout(), selectors...)
	manager.command = cmd
	manager.addFlagsFromFields(cmd)

	return manager
}

// LoadConfig loads the configuration with notifications. When a timer is
// provided, timing information is included in the success notification.
func (m *Manager) LoadConfig(tmr timer.Timer) (*v1alpha1.Bootstrap, error) {
	return m.loadConfigWithOptions(tmr, false)
}

// LoadConfigSilent loads the configuration without notifications.
func (m *Manager) LoadConfigSilent() (*v1alpha1.Bootstrap, error) {
	return m.loadConfigWithOptions(nil, true)
}

func (m *Manager) loadConfigWithOptions(
	tmr timer.Timer,
	silent bool,
) (*v1alpha1.Bootstrap, error) {
	if m.configLoaded {
		return m.Config, nil
	}

	if !silent {
		notify.WriteMessage(notify.Message{
			Type:    notify.ActivityType,
			Content: "loading bootstrap config",
			Writer:  m.Writer,
		})
	}

	if err := m.readConfig(silent); err != nil {
		return nil, err
	}

	if err := m.unmarshalAndApplyDefaults(); err != nil {
		return nil, err
	}

	if err := m.applyFlagOverrides(); err != nil {
		return nil, err
	}

	m.applyChannelShorthands()
	m.applyDerivedDefaults()

	if err := m.Config.Validate(); err != nil {
		if !silent {
			notify.Errorf(m.Writer, "%s", err.Error())
		}

		return nil, fmt.Errorf("load config: %w", err)
	}

	if !silent {
		notify.SuccessWithTimerf(m.Writer, tmr, "config loaded")
	}

	m.configLoaded = true

	return m.Config, nil
}

func (m *Manager) readConfig(silent bool) error {
	err := m.Viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config file: %w", err)
		}

		if !silent {
			notify.Activityf(m.Writer, "using default config")
		}

		return nil
	}

	if !silent {
		notify.Activityf(m.Writer, "'%s' found", m.Viper.ConfigFileUsed())
	}

	return nil
}

// unmarshalAndApplyDefaults decodes into an empty Bootstrap and copies the
// loaded values over a defaulted one, so empty fields keep their defaults.
func (m *Manager) unmarshalAndApplyDefaults() error {
	loaded := &v1alpha1.Bootstrap{}

	decoderConfig := func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.TextUnmarshallerHookFunc(),
			metav1DurationDecodeHook(),
		)
	}

	if err := m.Viper.Unmarshal(loaded, decoderConfig); err != nil {
		return fmt.Errorf("unmarshal configuration: %w", err)
	}

	defaulted := v1alpha1.NewBootstrap()

	err := copier.CopyWithOption(defaulted, loaded, copier.Option{
		IgnoreEmpty: true,
		DeepCopy:    true,
	})
	if err != nil {
		return fmt.Errorf("apply configuration defaults: %w", err)
	}

	m.Config = defaulted

	return nil
}

func (m *Manager) applyFlagOverrides() error {
	if m.command == nil {
		return nil
	}

	overrides := make(map[string]string)

	m.command.Flags().Visit(func(f *pflag.Flag) {
		overrides[f.Name] = f.Value.String()
	})

	for _, selector := range m.fieldSelectors {
		value, ok := overrides[selector.FlagName]
		if !ok {
			continue
		}

		fieldPtr := selector.Selector(m.Config)
		if fieldPtr == nil {
			continue
		}

		if err := setFieldValueFromFlag(fieldPtr, value); err != nil {
			return fmt.Errorf("apply flag override for %s: %w", selector.FlagName, err)
		}
	}

	return nil
}

// applyChannelShorthands maps the --latest and --prerelease toggles onto
// the release channel.
func (m *Manager) applyChannelShorthands() {
	if m.command == nil {
		return
	}

	flags := m.command.Flags()

	if latest, err := flags.GetBool(FlagLatest); err == nil && latest {
		m.Config.Spec.Channel = v1alpha1.ChannelLatest
	}

	if prerelease, err := flags.GetBool(FlagPrerelease); err == nil && prerelease {
		m.Config.Spec.Channel = v1alpha1.ChannelPrerelease
	}
}

// applyDerivedDefaults fills fields whose defaults depend on other fields.
func (m *Manager) applyDerivedDefaults() {
	cluster := &m.Config.Spec.Cluster
	if cluster.Context == "" && cluster.Distribution != "" {
		cluster.Context = cluster.Distribution.ContextName(cluster.Name)
	}
}

func (m *Manager) addFlagsFromFields(cmd *cobra.Command) {
	probe := v1alpha1.NewBootstrap()
	flags := cmd.Flags()

	for _, selector := range m.fieldSelectors {
		fieldPtr := selector.Selector(probe)

		switch ptr := fieldPtr.(type) {
		case pflag.Value:
			flags.Var(ptr, selector.FlagName, selector.Description)
		case *string:
			flags.String(selector.FlagName, *ptr, selector.Description)
		case *bool:
			flags.Bool(selector.FlagName, *ptr, selector.Description)
		case *metav1.Duration:
			flags.Duration(selector.FlagName, ptr.Duration, selector.Description)
		}
	}

	flags.Bool(FlagLatest, false, "Install the newest released chart versions")
	flags.Bool(FlagPrerelease, false, "Install the newest chart versions including prereleases")
}

func initializeViper() *viper.Viper {
	viperInstance := viper.New()
	viperInstance.SetConfigName(configName)
	viperInstance.SetConfigType("yaml")
	viperInstance.AddConfigPath(".")

	viperInstance.SetEnvPrefix("PMCTL")
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()

	// Viper only consults the environment for keys it knows about, so the
	// configurable keys are bound explicitly.
	for _, key := range []string{
		"spec.cluster.name",
		"spec.cluster.distribution",
		"spec.cluster.kubeconfig",
		"spec.cluster.context",
		"spec.certs.directory",
		"spec.channel",
		"spec.exampleData",
		"spec.cached",
	} {
		_ = viperInstance.BindEnv(key)
	}

	// KUBECTL_WAIT_TIMEOUT predates the PMCTL_ scheme and stays supported.
	_ = viperInstance.BindEnv("spec.waitTimeout", "KUBECTL_WAIT_TIMEOUT", "PMCTL_SPEC_WAITTIMEOUT")

	return viperInstance
}
