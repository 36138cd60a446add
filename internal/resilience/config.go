package resilience

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the parameters of one pipeline instance
type Config struct {
	// Timeout bounds the whole execution. Zero disables the stage.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// MaxRetries is the number of retries after the first attempt
	MaxRetries int `yaml:"maxRetries,omitempty"`

	// BaseDelay is the delay before the first retry; later delays double
	BaseDelay time.Duration `yaml:"baseDelay,omitempty"`

	// MaxDelay caps the exponential growth
	MaxDelay time.Duration `yaml:"maxDelay,omitempty"`

	// JitterFactor randomizes each delay within [d*(1-f), d*(1+f)]
	JitterFactor float64 `yaml:"jitterFactor,omitempty"`

	// Breaker arms the circuit breaker when non-nil
	Breaker *BreakerConfig `yaml:"breaker,omitempty"`

	// retriesSet and jitterSet record an explicit zero in the config file
	retriesSet bool
	jitterSet  bool
}

// UnmarshalYAML decodes c and remembers whether maxRetries and jitterFactor
// were given, so that an explicit 0 survives Merge.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type plain Config
	if err := node.Decode((*plain)(c)); err != nil {
		return err
	}

	var explicit struct {
		MaxRetries   *int     `yaml:"maxRetries"`
		JitterFactor *float64 `yaml:"jitterFactor"`
	}
	if err := node.Decode(&explicit); err != nil {
		return err
	}
	c.retriesSet = explicit.MaxRetries != nil
	c.jitterSet = explicit.JitterFactor != nil
	return nil
}

// Merge returns c with every zero field replaced by the matching field of defaults.
// MaxRetries and JitterFactor keep an explicit zero. A nil Breaker stays nil.
func (c Config) Merge(defaults Config) Config {
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	if c.MaxRetries == 0 && !c.retriesSet {
		c.MaxRetries = defaults.MaxRetries
	}
	if c.BaseDelay == 0 {
		c.BaseDelay = defaults.BaseDelay
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = defaults.MaxDelay
	}
	if c.JitterFactor == 0 && !c.jitterSet {
		c.JitterFactor = defaults.JitterFactor
	}
	if c.Breaker != nil && defaults.Breaker != nil {
		b := *c.Breaker
		if b.FailureRatio == 0 {
			b.FailureRatio = defaults.Breaker.FailureRatio
		}
		if b.MinimumThroughput == 0 {
			b.MinimumThroughput = defaults.Breaker.MinimumThroughput
		}
		if b.SamplingDuration == 0 {
			b.SamplingDuration = defaults.Breaker.SamplingDuration
		}
		if b.BreakDuration == 0 {
			b.BreakDuration = defaults.Breaker.BreakDuration
		}
		c.Breaker = &b
	}
	return c
}

// Validate checks the configuration for values the pipeline cannot honour
func (c Config) Validate() error {
	var errs []error
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("maxRetries must not be negative, got %d", c.MaxRetries))
	}
	if c.BaseDelay < 0 || c.MaxDelay < 0 {
		errs = append(errs, fmt.Errorf("retry delays must not be negative"))
	}
	if c.JitterFactor < 0 || c.JitterFactor > 1 {
		errs = append(errs, fmt.Errorf("jitterFactor must be between 0 and 1, got %f", c.JitterFactor))
	}
	if b := c.Breaker; b != nil {
		if b.FailureRatio <= 0 || b.FailureRatio > 1 {
			errs = append(errs, fmt.Errorf("breaker.failureRatio must be in (0, 1], got %f", b.FailureRatio))
		}
		if b.MinimumThroughput < 1 {
			errs = append(errs, fmt.Errorf("breaker.minimumThroughput must be at least 1, got %d", b.MinimumThroughput))
		}
		if b.SamplingDuration <= 0 || b.BreakDuration <= 0 {
			errs = append(errs, fmt.Errorf("breaker durations must be positive"))
		}
	}
	return errors.Join(errs...)
}
