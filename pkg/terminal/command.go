// Package terminal implements the interactive memscan session: it reads
// operator input, dispatches it to the scanner and prints the results.
package terminal

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/derekparker/trie"

	"github.com/go-delve/memscan/pkg/proc"
)

// searcher is the part of a session the commands operate on. It hides the
// element type of the session.
type searcher interface {
	// search runs one scan round with the predicate described by spec.
	search(spec searchSpec) error
	// list prints the first candidates and their current values.
	list(args string) error
}

type callContext struct {
	s searcher
}

type cmdfunc func(t *Term, ctx callContext, args string) error

type command struct {
	aliases        []string
	builtinAliases []string
	group          commandGroup
	helpMsg        string
	cmdFn          cmdfunc
}

// Returns true if the command string matches one of the aliases for this command
func (c command) match(cmdstr string) bool {
	for _, v := range c.aliases {
		if v == cmdstr {
			return true
		}
	}
	return false
}

// Commands represents the commands available at the search prompt.
type Commands struct {
	cmds        []command
	completions *trie.Trie
}

// DefaultCommands returns a Commands struct with the default commands
// defined.
func DefaultCommands() *Commands {
	c := &Commands{}

	c.cmds = []command{
		{aliases: []string{"help", "h"}, cmdFn: c.help, helpMsg: `Prints the help message.

	help [command]

Type "help" followed by the name of a command for more information about it.`},
		{aliases: []string{"="}, group: searchCmds, cmdFn: searchCommand("="), helpMsg: `Keeps the addresses holding the given value.

	= <value>
	<value>

A bare number is the same as "= <value>". Integers accept the 0x, 0o and 0b prefixes.`},
		{aliases: []string{"!="}, group: searchCmds, cmdFn: searchCommand("!="), helpMsg: `Keeps the addresses not holding the given value.

	!= <value>`},
		{aliases: []string{"<"}, group: searchCmds, cmdFn: searchCommand("<"), helpMsg: `Keeps the addresses holding a value less than the given one.

	< <value>`},
		{aliases: []string{">"}, group: searchCmds, cmdFn: searchCommand(">"), helpMsg: `Keeps the addresses holding a value greater than the given one.

	> <value>`},
		{aliases: []string{"changed", "c"}, group: searchCmds, cmdFn: searchCommand("changed"), helpMsg: `Keeps the addresses whose value changed since the last scan.`},
		{aliases: []string{"unchanged", "u"}, group: searchCmds, cmdFn: searchCommand("unchanged"), helpMsg: `Keeps the addresses whose value did not change since the last scan.`},
		{aliases: []string{"increased", "inc"}, group: searchCmds, cmdFn: searchCommand("increased"), helpMsg: `Keeps the addresses whose value grew since the last scan.`},
		{aliases: []string{"decreased", "dec"}, group: searchCmds, cmdFn: searchCommand("decreased"), helpMsg: `Keeps the addresses whose value shrank since the last scan.`},
		{aliases: []string{"expr", "e"}, group: searchCmds, cmdFn: searchCommand("expr"), helpMsg: `Keeps the addresses for which a Starlark expression is true.

	expr <expression>

The expression can use two variables: prev, the value at the last scan (or
at the snapshot), and cur, the value now. For example:

	expr cur > prev and cur - prev < 10
	expr cur % 8 == 0`},
		{aliases: []string{"list", "ls"}, group: candidateCmds, cmdFn: listCommand, helpMsg: `Prints the candidate addresses with their current value.

	list [n]

At most n addresses are printed, max-list-candidates from the configuration
file if n is not given. Values that changed since the last list are
followed by the old value.`},
		{aliases: []string{"reset", "r"}, group: candidateCmds, cmdFn: resetCommand, helpMsg: `Discards the candidates and takes a new snapshot.`},
		{aliases: []string{"config"}, cmdFn: configureCmd, helpMsg: `Changes configuration parameters.

	config -list

Show all configuration parameters.

	config -save

Saves the configuration file to disk, overwriting the current configuration file.

	config <parameter> <value>

Changes the value of a configuration parameter. max-list-candidates and
monitor-interval apply immediately, value-type and byte-order to the next
session.

	config alias <command> <alias>
	config alias <alias>

Defines <alias> as an alias to <command> or removes an alias.`},
		{aliases: []string{"exit", "quit", "q"}, cmdFn: exitCommand, helpMsg: `Exit memscan.`},
	}

	sort.Sort(byFirstAlias(c.cmds))
	c.buildCompletions()
	return c
}

// byFirstAlias will sort by the first
// alias of a command.
type byFirstAlias []command

func (a byFirstAlias) Len() int           { return len(a) }
func (a byFirstAlias) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a byFirstAlias) Less(i, j int) bool { return a[i].aliases[0] < a[j].aliases[0] }

func (c *Commands) buildCompletions() {
	c.completions = trie.New()
	for _, cmd := range c.cmds {
		for _, alias := range cmd.aliases {
			if len(alias) > 1 && isWord(alias) {
				c.completions.Add(alias, nil)
			}
		}
	}
}

func isWord(s string) bool {
	for _, ch := range s {
		if (ch < 'a' || ch > 'z') && (ch < 'A' || ch > 'Z') && (ch < '0' || ch > '9') && ch != '_' && ch != '-' && ch != '!' {
			return false
		}
	}
	return true
}

// complete returns the command names and aliases that start with line.
func (c *Commands) complete(line string) []string {
	if line == "" || strings.ContainsRune(line, ' ') {
		return nil
	}
	r := c.completions.PrefixSearch(line)
	sort.Strings(r)
	return r
}

// Find will look up the command function for the given command input.
// If it cannot find the command it will default to noCmdAvailable().
// An empty string does nothing.
func (c *Commands) Find(cmdstr string) cmdfunc {
	if cmdstr == "" {
		return nullCommand
	}
	for _, v := range c.cmds {
		if v.match(cmdstr) {
			return v.cmdFn
		}
	}
	if isNumber(cmdstr) {
		// a bare value searches for that value
		return func(t *Term, ctx callContext, args string) error {
			if args != "" {
				return &proc.ConfigurationError{Msg: fmt.Sprintf("unexpected %q after value", args)}
			}
			return searchCommand("=")(t, ctx, cmdstr)
		}
	}
	return noCmdAvailable
}

// Call takes a command to execute.
func (c *Commands) Call(cmdstr string, t *Term, ctx callContext) error {
	cmdname, args := splitCommand(cmdstr)
	return c.Find(cmdname)(t, ctx, args)
}

func splitCommand(cmdstr string) (cmdname, args string) {
	vals := strings.SplitN(strings.TrimSpace(cmdstr), " ", 2)
	cmdname = vals[0]
	if len(vals) > 1 {
		args = strings.TrimSpace(vals[1])
	}
	return cmdname, args
}

// Merge takes aliases defined in the config struct and merges them with the default aliases.
func (c *Commands) Merge(allAliases map[string][]string) {
	for i := range c.cmds {
		if c.cmds[i].builtinAliases != nil {
			c.cmds[i].aliases = append(c.cmds[i].aliases[:0], c.cmds[i].builtinAliases...)
		}
	}
	for i := range c.cmds {
		if aliases, ok := allAliases[c.cmds[i].aliases[0]]; ok {
			if c.cmds[i].builtinAliases == nil {
				c.cmds[i].builtinAliases = make([]string, len(c.cmds[i].aliases))
				copy(c.cmds[i].builtinAliases, c.cmds[i].aliases)
			}
			c.cmds[i].aliases = append(c.cmds[i].aliases, aliases...)
		}
	}
	c.buildCompletions()
}

func isNumber(s string) bool {
	if _, err := strconv.ParseInt(s, 0, 64); err == nil {
		return true
	}
	if _, err := strconv.ParseUint(s, 0, 64); err == nil {
		return true
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

var noCmdError = &proc.ConfigurationError{Msg: "command not available"}

func noCmdAvailable(t *Term, ctx callContext, args string) error {
	return noCmdError
}

func nullCommand(t *Term, ctx callContext, args string) error {
	return nil
}

func (c *Commands) help(t *Term, ctx callContext, args string) error {
	if args != "" {
		for _, cmd := range c.cmds {
			for _, alias := range cmd.aliases {
				if alias == args {
					fmt.Fprintln(t.stdout, cmd.helpMsg)
					return nil
				}
			}
		}
		return noCmdError
	}

	fmt.Fprintln(t.stdout, "The following commands are available:")

	for _, cgd := range commandGroupDescriptions {
		fmt.Fprintf(t.stdout, "\n%s:\n", cgd.description)
		w := new(tabwriter.Writer)
		w.Init(t.stdout, 0, 8, 0, '-', 0)
		for _, cmd := range c.cmds {
			if cmd.group != cgd.group {
				continue
			}
			h := cmd.helpMsg
			if idx := strings.Index(h, "\n"); idx >= 0 {
				h = h[:idx]
			}
			if len(cmd.aliases) > 1 {
				fmt.Fprintf(w, "    %s (alias: %s) \t %s\n", cmd.aliases[0], strings.Join(cmd.aliases[1:], " | "), h)
			} else {
				fmt.Fprintf(w, "    %s \t %s\n", cmd.aliases[0], h)
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(t.stdout)
	fmt.Fprintln(t.stdout, "A bare number searches for that value.")
	fmt.Fprintln(t.stdout, "Type help followed by a command for full documentation.")
	return nil
}

// searchCommand returns a command running a scan round with the
// predicate op.
func searchCommand(op string) cmdfunc {
	return func(t *Term, ctx callContext, args string) error {
		spec, err := parseSearch(op, args)
		if err != nil {
			return err
		}
		return ctx.s.search(spec)
	}
}

func listCommand(t *Term, ctx callContext, args string) error {
	return ctx.s.list(args)
}

// resetRequestError is returned by the reset command to discard the
// current candidates.
type resetRequestError struct{}

func (resetRequestError) Error() string {
	return "reset"
}

func resetCommand(t *Term, ctx callContext, args string) error {
	return resetRequestError{}
}

// ExitRequestError is returned when the user
// exits memscan.
type ExitRequestError struct{}

func (ere ExitRequestError) Error() string {
	return ""
}

func exitCommand(t *Term, ctx callContext, args string) error {
	return ExitRequestError{}
}
