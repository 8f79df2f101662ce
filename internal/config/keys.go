package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// setter parses a text value into one field.
type setter func(c *Config, v string) error

var setters = map[string]setter{
	"server.address": func(c *Config, v string) error {
		c.Server.Address = v
		return nil
	},
	"server.allowed_origins": func(c *Config, v string) error {
		c.Server.AllowedOrigins = splitList(v)
		return nil
	},
	"engine.tick_interval": func(c *Config, v string) error {
		return c.Engine.TickInterval.UnmarshalText([]byte(v))
	},
	"engine.rows_per_tick": func(c *Config, v string) error {
		return parseInt(v, &c.Engine.RowsPerTick)
	},
	"engine.canvas_size": func(c *Config, v string) error {
		return parseInt(v, &c.Engine.CanvasSize)
	},
	"engine.matcher": func(c *Config, v string) error {
		c.Engine.Matcher = strings.ToLower(v)
		return nil
	},
	"engine.default_fill": func(c *Config, v string) error {
		c.Engine.DefaultFill = v
		return nil
	},
	"storage.dir": func(c *Config, v string) error {
		c.Storage.Dir = v
		return nil
	},
	"transport.send_queue_size": func(c *Config, v string) error {
		return parseInt(v, &c.Transport.SendQueueSize)
	},
	"transport.write_timeout": func(c *Config, v string) error {
		return c.Transport.WriteTimeout.UnmarshalText([]byte(v))
	},
	"log.level": func(c *Config, v string) error {
		c.Log.Level = strings.ToLower(v)
		return nil
	},
	"scripts.dir": func(c *Config, v string) error {
		c.Scripts.Dir = v
		return nil
	},
	"scripts.instruction_limit": func(c *Config, v string) error {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		c.Scripts.InstructionLimit = n
		return nil
	},
}

// Keys returns every setting key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set parses value into the setting named by key. It does not validate the
// configuration as a whole.
func (c *Config) Set(key, value string) error {
	set, ok := setters[strings.ToLower(key)]
	if !ok {
		return &KeyError{Key: key, Value: value, Err: ErrUnknownKey}
	}
	if err := set(c, strings.TrimSpace(value)); err != nil {
		return &KeyError{Key: key, Value: value, Err: err}
	}
	return nil
}

// EnvName returns the environment variable for key under prefix.
func EnvName(prefix, key string) string {
	return prefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func parseInt(v string, dst *int) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	*dst = n
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
