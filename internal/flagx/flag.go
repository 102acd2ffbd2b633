// Package flagx picks selected flags out of an argument list so several
// parsers can share os.Args without tripping over each other's flags.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs keeps only the flags named in allowedFlags, together with their
// values. A value is either joined with '=' ("--config=a.json") or the next
// argument when that does not start with '-' ("-c a.json"). Scanning stops
// at "--", after which every argument is positional.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]bool, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = true
	}

	var out []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		name, _, joined := strings.Cut(arg, "=")
		if !allowed[name] {
			continue
		}
		out = append(out, arg)
		if !joined && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			out = append(out, args[i])
		}
	}
	return out
}

// JsonConfigFlags inspects args (usually os.Args[1:]) and extracts the
// config file path provided via -c, -config or --config.
//
// Only these flags are parsed; everything else is ignored so the caller's own
// flag handling (cobra in the CLI) is left untouched.
//
// If none of the flags is present, an empty string is returned.
func JsonConfigFlags(args []string) string {
	var config string

	filtered := FilterArgs(args, []string{"-c", "-config", "--config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(filtered)

	return config
}
