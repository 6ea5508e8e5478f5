package main

import (
	"regexp"
	"strings"

	"github.com/spf13/pflag"
)

var negativeNumber = regexp.MustCompile(`^-[0-9.]`)

// reorder moves flags ahead of positionals and puts the positionals after
// "--", so a negative AMOUNT or OFFSET is never read as a flag.
func reorder(fs *pflag.FlagSet, args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			positional = append(positional, args[i+1:]...)
			i = len(args)
		case negativeNumber.MatchString(arg), arg == "-", !strings.HasPrefix(arg, "-"):
			positional = append(positional, arg)
		default:
			flags = append(flags, arg)
			if takesValue(fs, arg) && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		}
	}
	return append(append(flags, "--"), positional...)
}

// takesValue reports whether arg is a flag whose value is the next argument
func takesValue(fs *pflag.FlagSet, arg string) bool {
	if strings.Contains(arg, "=") {
		return false
	}
	var f *pflag.Flag
	if name, ok := strings.CutPrefix(arg, "--"); ok {
		f = fs.Lookup(name)
	} else if len(arg) == 2 {
		f = fs.ShorthandLookup(arg[1:])
	}
	return f != nil && f.Value.Type() != "bool"
}
