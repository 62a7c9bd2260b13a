package helphelpers

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Prepare prepares cmd flag set for the invocation of its usage function by
// hiding flags that we want cobra to parse but we don't want to show to the
// user.
// Flags are defined on the root command so that they can be written before
// or after the subcommand name, but not all of them apply to every
// subcommand.
//
// For example:
//
//	memscan --type float32 regions 1234
//
// must parse successfully even though the type flag is not used by
// 'regions'.
//
// Prepare is a destructive command, cmd can not be reused after it has been
// called.
func Prepare(cmd *cobra.Command) {
	switch cmd.Name() {
	case "help", "version", "log":
		hideAllFlags(cmd)
	case "regions":
		hideFlag(cmd, "config")
		hideFlag(cmd, "type")
	case "memscan", "find", "attach":
		// All flags apply
	}
}

func hideAllFlags(cmd *cobra.Command) {
	for c := cmd; c != nil; c = c.Parent() {
		c.PersistentFlags().VisitAll(func(flag *pflag.Flag) {
			flag.Hidden = true
		})
	}
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		flag.Hidden = true
	})
}

func hideFlag(cmd *cobra.Command, name string) {
	if cmd == nil {
		return
	}
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		flag = cmd.PersistentFlags().Lookup(name)
	}
	if flag != nil {
		flag.Hidden = true
		return
	}
	hideFlag(cmd.Parent(), name)
}
