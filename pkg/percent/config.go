package percent

import (
	"flag"
	"strings"
)

// Config describes a custom percent escaper.
type Config struct {
	SafeChars    string `yaml:"safe_chars"`
	PlusForSpace bool   `yaml:"plus_for_space"`
}

// RegisterFlags adds the flags required to config this to the given FlagSet
func (cfg *Config) RegisterFlags(flags *flag.FlagSet) {
	cfg.RegisterFlagsWithPrefix("", flags)
}

// RegisterFlagsWithPrefix registers flags, adding the provided prefix if
// needed. If the prefix is not blank and doesn't end with '.', a '.' is
// appended to it.
func (cfg *Config) RegisterFlagsWithPrefix(prefix string, flags *flag.FlagSet) {
	if prefix != "" && !strings.HasSuffix(prefix, ".") {
		prefix += "."
	}
	flags.StringVar(&cfg.SafeChars, prefix+"percent.safe-chars", "", "Characters left unescaped in addition to ASCII letters and digits.")
	flags.BoolVar(&cfg.PlusForSpace, prefix+"percent.plus-for-space", false, "Escape space as '+' instead of '%20'.")
}

// New builds the Escaper described by the config.
func (cfg Config) New() (*Escaper, error) {
	return New(cfg.SafeChars, cfg.PlusForSpace)
}
