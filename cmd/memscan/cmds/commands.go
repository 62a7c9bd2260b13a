package cmds

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/go-delve/memscan/cmd/memscan/cmds/helphelpers"
	"github.com/go-delve/memscan/pkg/config"
	"github.com/go-delve/memscan/pkg/logflags"
	"github.com/go-delve/memscan/pkg/proc"
	"github.com/go-delve/memscan/pkg/proc/native"
	"github.com/go-delve/memscan/pkg/terminal"
	"github.com/go-delve/memscan/pkg/version"
)

var (
	// log is whether to log debug statements.
	log bool
	// logOutput is a comma separated list of components that should produce debug output.
	logOutput string
	// logDest is the file path or file descriptor where logs should go.
	logDest string
	// configPath overrides the location of config.yml.
	configPath string
	// valueType is the element type searched for, empty to use the
	// configured one.
	valueType string

	// rootCommand is the root of the command tree.
	rootCommand *cobra.Command
)

const memscanCommandLongDesc = `memscan finds the address of a value in the memory of a running process.

It captures the writable memory of the target, then narrows the set of
addresses holding a value by searching again after the value changed in the
target. Once a single address is left its value is printed every time it
changes.

Without arguments memscan asks for the title of the window of the target.`

// New returns an initialized command tree.
func New() *cobra.Command {
	// Main memscan root command.
	rootCommand = &cobra.Command{
		Use:   "memscan",
		Short: "memscan is a memory value scanner.",
		Long:  memscanCommandLongDesc,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(execute("", 0))
		},
	}

	rootCommand.PersistentFlags().BoolVarP(&log, "log", "", false, "Enable logging.")
	rootCommand.PersistentFlags().StringVarP(&logOutput, "log-output", "", "", `Comma separated list of components that should produce debug output (see 'memscan help log')`)
	rootCommand.PersistentFlags().StringVarP(&logDest, "log-dest", "", "", "Writes logs to the specified file or file descriptor (see 'memscan help log').")
	rootCommand.PersistentFlags().StringVar(&configPath, "config", "", "Path of the configuration file, ~/.memscan/config.yml by default.")
	rootCommand.PersistentFlags().StringVarP(&valueType, "type", "t", "", "Type of the value searched for: "+strings.Join(proc.ValueTypeNames, ", ")+".")

	// 'find' subcommand.
	findCommand := &cobra.Command{
		Use:   "find title",
		Short: "Search the process owning a window.",
		Long: `Search the process owning the window whose title contains the argument.

Matching is case-sensitive. If no window or more than one window matches, the
title is asked again.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(execute(args[0], 0))
		},
	}
	rootCommand.AddCommand(findCommand)

	// 'attach' subcommand.
	attachCommand := &cobra.Command{
		Use:   "attach pid",
		Short: "Search a process by pid.",
		Long:  `Search the memory of the process with the given pid, skipping the window search.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("you must provide a PID")
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			pid, err := parsePid(args[0])
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			os.Exit(execute("", pid))
		},
	}
	rootCommand.AddCommand(attachCommand)

	// 'regions' subcommand.
	regionsCommand := &cobra.Command{
		Use:   "regions pid",
		Short: "Print the memory regions a search would read.",
		Long: `Captures the writable memory of the process with the given pid and prints
the regions captured, then exits.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("you must provide a PID")
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			pid, err := parsePid(args[0])
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			os.Exit(regionsCmd(cmd.OutOrStdout(), pid))
		},
	}
	rootCommand.AddCommand(regionsCommand)

	// 'version' subcommand.
	var versionVerbose = false
	versionCommand := &cobra.Command{
		Use:   "version",
		Short: "Prints version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "memscan\n%s\n", version.MemscanVersion)
			if versionVerbose {
				fmt.Fprintf(cmd.OutOrStdout(), "Build Details: %s\n", version.BuildInfo())
			}
		},
	}
	versionCommand.Flags().BoolVarP(&versionVerbose, "verbose", "v", false, "print verbose version info")
	rootCommand.AddCommand(versionCommand)

	rootCommand.AddCommand(&cobra.Command{
		Use:   "log",
		Short: "Help about logging flags.",
		Long: `Logging can be enabled by specifying the --log flag and using the
--log-output flag to select which components should produce logs.

The argument of --log-output must be a comma separated list of component
names selected from this list:


	scanner		Log statistics of every search round
	snapshot	Log the regions captured and skipped
	monitor		Log every change of the monitored value
	native		Log process and memory map access
	terminal	Log the interactive session

Additionally --log-dest can be used to specify where the logs should be
written.
If the argument is a number it will be interpreted as a file descriptor,
otherwise as a file path.

`,
	})

	usage := rootCommand.UsageFunc()
	rootCommand.SetUsageFunc(func(cmd *cobra.Command) error {
		helphelpers.Prepare(cmd)
		return usage(cmd)
	})

	rootCommand.DisableAutoGenTag = true

	return rootCommand
}

func parsePid(arg string) (int, error) {
	pid, err := strconv.Atoi(arg)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid: %s", arg)
	}
	return pid, nil
}

// loadConfig reads the configuration file, from --config if it was given.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadConfigFrom(configPath)
	}
	return config.LoadConfig()
}

func execute(title string, pid int) int {
	if err := logflags.Setup(log, logOutput, logDest); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer logflags.Close()

	conf, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	term, err := terminal.New(conf, valueType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	term.Title = title
	term.Pid = pid

	status, err := term.Run()
	if err != nil {
		printFatal(os.Stderr, err)
	}
	return status
}

// printFatal reports an error that ended the session.
func printFatal(w io.Writer, err error) {
	fmt.Fprintf(w, "\nFATAL\n%v\n", err)
}

func regionsCmd(w io.Writer, pid int) int {
	if err := logflags.Setup(log, logOutput, logDest); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer logflags.Close()

	p, err := native.Attach(pid)
	if err != nil {
		printFatal(os.Stderr, err)
		return 1
	}
	defer p.Close()

	if err := printRegions(w, p); err != nil {
		printFatal(os.Stderr, err)
		return 1
	}
	return 0
}

// printRegions captures the memory of p and prints a line for every region
// captured, followed by the totals.
func printRegions(w io.Writer, p proc.Process) error {
	regions, err := proc.Snapshot(p)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "Start\tEnd\tSize\tProtection")
	for i := range regions {
		r := &regions[i]
		prot := "?"
		if info, err := p.QueryRegion(r.Base); err == nil {
			prot = info.Protect.String()
		}
		fmt.Fprintf(tw, "0x%016x\t0x%016x\t%d\t%s\n", r.Base, r.End(), r.Size, prot)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	total := proc.TotalSize(regions)
	fmt.Fprintf(w, "Total bytes read: %d, %d MiB\n", total, total>>20)
	fmt.Fprintf(w, "%d memory regions\n", len(regions))
	return nil
}
