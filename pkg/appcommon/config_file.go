package appcommon

import (
	"bytes"
	"flag"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const configFileOption = "config.file"

// ParseFlagsAndConfigFile fills cfg, whose flags must already be registered
// in fs, in three layers: flag defaults, then the YAML file named by
// -config.file (if any), then the flags explicitly given in args.
func ParseFlagsAndConfigFile(fs *flag.FlagSet, args []string, cfg interface{}) error {
	if fs.Lookup(configFileOption) == nil {
		fs.String(configFileOption, "", "Configuration file to load, flags given on the command line take precedence.")
	}

	if configFile := parseConfigFileParameter(fs, args); configFile != "" {
		if err := loadConfigFile(configFile, cfg); err != nil {
			return err
		}
	}

	return fs.Parse(args)
}

// parseConfigFileParameter looks for -config.file in args the way fs.Parse
// would find it: scanning stops at the first non-flag argument or "--".
// Every other flag of fs is mirrored with a throwaway value of the same
// kind, so that a flag's value is never taken for a flag itself. Errors are
// reported by the main parse.
func parseConfigFileParameter(fs *flag.FlagSet, args []string) (configFile string) {
	scan := flag.NewFlagSet("", flag.ContinueOnError)
	scan.SetOutput(io.Discard)
	fs.VisitAll(func(f *flag.Flag) {
		switch {
		case f.Name == configFileOption:
			scan.StringVar(&configFile, configFileOption, "", "")
		case isBoolFlag(f):
			scan.Bool(f.Name, false, "")
		default:
			scan.String(f.Name, "", "")
		}
	})

	_ = scan.Parse(args)
	return configFile
}

func isBoolFlag(f *flag.Flag) bool {
	b, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}

func loadConfigFile(filename string, cfg interface{}) error {
	buf, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrap(err, "can't read config file")
	}

	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrapf(err, "can't parse config file %s", filename)
	}
	return nil
}
