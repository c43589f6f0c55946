package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// CheckoutConfig controls gateway selection and redirect URLs for checkout.
// It is hot-reloadable so gateways can be toggled without a restart.
type CheckoutConfig struct {
	DefaultGateway  string   `mapstructure:"defaultGateway"`
	EnabledGateways []string `mapstructure:"enabledGateways"`
	Currency        string   `mapstructure:"currency"`
	SuccessPath     string   `mapstructure:"successPath"`
	CancelPath      string   `mapstructure:"cancelPath"`
}

func DefaultCheckoutConfig() CheckoutConfig {
	return CheckoutConfig{
		DefaultGateway:  "stripe",
		EnabledGateways: []string{"stripe", "razorpay"},
		Currency:        "USD",
		SuccessPath:     "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelPath:      "/cart",
	}
}

func (c CheckoutConfig) GatewayEnabled(provider string) bool {
	for _, g := range c.EnabledGateways {
		if strings.EqualFold(g, provider) {
			return true
		}
	}
	return false
}

type CheckoutConfigHolder struct {
	current atomic.Value // holds CheckoutConfig
}

func NewCheckoutConfigHolder() (*CheckoutConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("checkout")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/framekart/config") // Volume-mounted config
	v.AddConfigPath("/etc/framekart")            // System config
	v.AddConfigPath(".")                         // Current directory (dev mode)

	v.SetEnvPrefix("FRAMEKART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// if config file not found, use defaults
		defaults := DefaultCheckoutConfig()
		v.SetDefault("checkout.defaultGateway", defaults.DefaultGateway)
		v.SetDefault("checkout.enabledGateways", defaults.EnabledGateways)
		v.SetDefault("checkout.currency", defaults.Currency)
		v.SetDefault("checkout.successPath", defaults.SuccessPath)
		v.SetDefault("checkout.cancelPath", defaults.CancelPath)
	}

	var cfg CheckoutConfig
	if err := v.UnmarshalKey("checkout", &cfg); err != nil {
		return nil, err
	}
	if err := validateCheckoutConfig(cfg); err != nil {
		return nil, err
	}

	holder := &CheckoutConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated CheckoutConfig
		if err := v.UnmarshalKey("checkout", &updated); err != nil {
			log.Printf("[checkout-config] reload failed: %v", err)
			return
		}
		if err := validateCheckoutConfig(updated); err != nil {
			log.Printf("[checkout-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[checkout-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *CheckoutConfigHolder) Get() CheckoutConfig {
	return h.current.Load().(CheckoutConfig)
}

func validateCheckoutConfig(cfg CheckoutConfig) error {
	if strings.TrimSpace(cfg.DefaultGateway) == "" {
		return errors.New("checkout.defaultGateway cannot be empty")
	}
	if len(cfg.EnabledGateways) == 0 {
		return errors.New("checkout.enabledGateways cannot be empty")
	}
	if !cfg.GatewayEnabled(cfg.DefaultGateway) {
		return errors.New("checkout.defaultGateway must be enabled")
	}
	return nil
}
