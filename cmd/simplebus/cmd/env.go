package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

// envFlags maps environment variables onto the flags they give defaults
// for.
var envFlags = []struct {
	env  string
	flag string
}{
	{"SIMPLEBUS_DIVISOR", "divisor"},
	{"SIMPLEBUS_ADDR_WIDTH", "addr-width"},
	{"SIMPLEBUS_DATA_WIDTH", "data-width"},
	{"SIMPLEBUS_PARITY", "parity"},
	{"SIMPLEBUS_LATENCY", "latency"},
	{"SIMPLEBUS_STROBE", "strobe"},
	{"SIMPLEBUS_READ_SEL", "read-sel"},
}

// applyEnv sets every flag that was not given on the command line from its
// environment variable.
func applyEnv(flags *pflag.FlagSet) error {
	for _, m := range envFlags {
		if flags.Lookup(m.flag) == nil || flags.Changed(m.flag) {
			continue
		}

		v, ok := os.LookupEnv(m.env)
		if !ok {
			continue
		}

		if err := flags.Set(m.flag, v); err != nil {
			return fmt.Errorf("%s=%q: %w", m.env, v, err)
		}
	}

	return nil
}
