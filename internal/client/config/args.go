package config

import (
	"flag"
	"io"
	"strings"
)

// Each layer parses os.Args on its own, so it must only see its own flags.
var (
	configFileFlags = []string{"c", "config"}
	settingFlags    = []string{"a", "d", "t", "l"}
)

// flagName returns the name of a "-name", "--name" or "-name=value"
// argument and whether the value is inline. Non-flag arguments and the "--"
// terminator yield an empty name.
func flagName(arg string) (name string, inline bool) {
	if len(arg) < 2 || arg[0] != '-' {
		return "", false
	}
	name = strings.TrimPrefix(arg[1:], "-")
	name, _, inline = strings.Cut(name, "=")
	return name, inline
}

// selectArgs keeps the arguments of the named flags, with their values
// whether inline or in the next argument, and drops everything else.
func selectArgs(args []string, names ...string) []string {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}

	selected := []string{}
	for i := 0; i < len(args); i++ {
		name, inline := flagName(args[i])
		if name == "" || !keep[name] {
			continue
		}
		selected = append(selected, args[i])
		if !inline && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			selected = append(selected, args[i+1])
			i++
		}
	}
	return selected
}

// configFileArg returns the JSON config path given with -c or -config, or "".
func configFileArg(args []string) string {
	var path string

	fs := flag.NewFlagSet("config-file", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to JSON config file")
	fs.StringVar(&path, "c", "", "path to JSON config file (short)")
	_ = fs.Parse(selectArgs(args, configFileFlags...))

	return path
}
