package terminal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/go-delve/liner"

	"github.com/go-delve/memscan/pkg/config"
	"github.com/go-delve/memscan/pkg/logflags"
	"github.com/go-delve/memscan/pkg/proc"
	"github.com/go-delve/memscan/pkg/proc/native"
)

const (
	windowPrompt = "Enter window name: "
	searchPrompt = "Enter value to search: "
)

// prompter reads lines from the operator. It is implemented by
// *liner.State.
type prompter interface {
	Prompt(string) (string, error)
	AppendHistory(string)
	ReadHistory(io.Reader) (int, error)
	WriteHistory(io.Writer) (int, error)
	SetCompleter(liner.Completer)
	Close() error
}

// Backend finds and opens target processes.
type Backend interface {
	SearchWindows(title string) (*native.Search, error)
	Attach(pid int) (proc.Process, error)
}

type nativeBackend struct{}

func (nativeBackend) SearchWindows(title string) (*native.Search, error) {
	return native.SearchWindows(title)
}

func (nativeBackend) Attach(pid int) (proc.Process, error) {
	p, err := native.Attach(pid)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Term represents the terminal running memscan.
type Term struct {
	conf      *config.Config
	valueType string
	order     binary.ByteOrder
	line      prompter
	cmds      *Commands
	dumb      bool
	stdout    io.Writer
	backend   Backend
	log       logflags.Logger

	// interrupt receives SIGINT while a value is monitored, it stops the
	// monitor.
	interrupt chan os.Signal
	// notifyInterrupt starts delivering SIGINT to interrupt and returns
	// the function that stops it.
	notifyInterrupt func(chan<- os.Signal) (stop func())

	// Title, if set, is used as the answer to the first window name
	// prompt.
	Title string
	// Pid, if set, selects the target process directly.
	Pid int
}

// New returns a new Term searching for values of type valueType, one of
// proc.ValueTypeNames.
func New(conf *config.Config, valueType string) (*Term, error) {
	if conf == nil {
		conf = &config.Config{}
	}
	if valueType == "" {
		valueType = conf.GetValueType()
	}
	valueType, err := proc.ParseValueType(valueType)
	if err != nil {
		return nil, err
	}
	order, err := proc.ParseByteOrder(conf.GetByteOrder())
	if err != nil {
		return nil, err
	}

	cmds := DefaultCommands()
	if conf.Aliases != nil {
		cmds.Merge(conf.Aliases)
	}

	dumb := isDumb()
	var w io.Writer = os.Stdout
	if !dumb {
		w = getColorableWriter()
	}

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	return &Term{
		conf:      conf,
		valueType: valueType,
		order:     order,
		line:      line,
		cmds:      cmds,
		dumb:      dumb,
		stdout:    w,
		backend:   nativeBackend{},
		log:       logflags.TerminalLogger(),
		interrupt: make(chan os.Signal, 1),

		notifyInterrupt: notifyInterrupt,
	}, nil
}

func notifyInterrupt(c chan<- os.Signal) func() {
	signal.Notify(c, os.Interrupt)
	return func() { signal.Stop(c) }
}

// Close returns the terminal to its previous mode.
func (t *Term) Close() {
	t.line.Close()
}

// Run begins running memscan in the terminal. It returns when the operator
// exits or on a fatal error.
func (t *Term) Run() (int, error) {
	defer t.Close()

	// Ctrl-C at a prompt is handled by liner. SIGINT is only caught while
	// monitoring a value, during a search it ends memscan.
	t.line.SetCompleter(t.cmds.complete)

	fullHistoryFile, err := config.GetConfigFilePath(config.HistoryFile)
	if err != nil {
		fmt.Printf("Unable to load history file: %v.", err)
	}

	f, err := os.Open(fullHistoryFile)
	if err != nil {
		f, err = os.Create(fullHistoryFile)
		if err != nil {
			fmt.Printf("Unable to open history file: %v. History will not be saved for this session.", err)
		}
	}
	if f != nil {
		t.line.ReadHistory(f)
		f.Close()
	}

	return t.run()
}

func (t *Term) run() (int, error) {
	err := t.session()
	var ere ExitRequestError
	if err == nil || errors.As(err, &ere) || errors.Is(err, io.EOF) {
		return t.handleExit()
	}
	return 1, err
}

// session picks the target process and searches it until the operator
// exits.
func (t *Term) session() error {
	pid := t.Pid
	if pid == 0 {
		w, err := t.pickWindow()
		if err != nil {
			return err
		}
		pid = w.Pid
	}
	p, err := t.backend.Attach(pid)
	if err != nil {
		return err
	}
	defer p.Close()
	if logflags.Terminal() {
		t.log.Debugf("attached to pid %d, searching %s values", pid, t.valueType)
	}

	switch t.valueType {
	case "int8":
		return runSession[int8](t, p)
	case "int16":
		return runSession[int16](t, p)
	case "int32":
		return runSession[int32](t, p)
	case "int64":
		return runSession[int64](t, p)
	case "uint8":
		return runSession[uint8](t, p)
	case "uint16":
		return runSession[uint16](t, p)
	case "uint32":
		return runSession[uint32](t, p)
	case "uint64":
		return runSession[uint64](t, p)
	case "float32":
		return runSession[float32](t, p)
	case "float64":
		return runSession[float64](t, p)
	}
	return &proc.ConfigurationError{Msg: fmt.Sprintf("unknown value type %q", t.valueType)}
}

// pickWindow asks for a window title until exactly one window matches.
func (t *Term) pickWindow() (native.Window, error) {
	title := t.Title
	for {
		if title == "" {
			var err error
			title, err = t.promptForInput(windowPrompt)
			if err != nil {
				return native.Window{}, err
			}
		}
		w, err := t.findWindow(title)
		if err == nil {
			return w, nil
		}
		if proc.IsFatal(err) {
			return native.Window{}, err
		}
		fmt.Fprintln(t.stdout, "Try again")
		title = ""
	}
}

func (t *Term) findWindow(title string) (native.Window, error) {
	s, err := t.backend.SearchWindows(title)
	if err != nil {
		var cerr *proc.ConfigurationError
		if errors.As(err, &cerr) {
			fmt.Fprintln(t.stdout, cerr.Msg)
		}
		return native.Window{}, err
	}
	for _, w := range s.Matches {
		kind := "Partial"
		if w.Exact {
			kind = "Exact"
		}
		t.printf("  %s match: [%s]\n", kind, w.Title)
	}
	t.printf("Checked %d windows total\n", s.Checked)

	w, err := s.Window()
	var aerr *proc.AmbiguityError
	if errors.As(err, &aerr) {
		if aerr.Matches == 0 {
			fmt.Fprintln(t.stdout, "No matches! Remember this is case-sensitive!")
		} else {
			t.printf("Too many matches! %d\n", aerr.Matches)
		}
	}
	return w, err
}

// promptForInput reads a line. Ctrl-C discards the line being edited and
// asks again.
func (t *Term) promptForInput(prompt string) (string, error) {
	for {
		l, err := t.line.Prompt(prompt)
		if err == liner.ErrPromptAborted {
			continue
		}
		if err != nil {
			return "", err
		}

		l = strings.TrimSuffix(l, "\n")
		if l != "" {
			t.line.AppendHistory(l)
		}
		return l, nil
	}
}

// yesno asks question until the answer is yes or no, complaining on w about
// anything else.
func yesno(line prompter, w io.Writer, question string) (bool, error) {
	for {
		answer, err := line.Prompt(question)
		if err == liner.ErrPromptAborted {
			continue
		}
		if err != nil {
			return false, err
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		switch answer {
		case "n", "no":
			return false, nil
		case "y", "yes":
			return true, nil
		}
		fmt.Fprintln(w, "Please answer Y or N")
	}
}

func (t *Term) handleExit() (int, error) {
	fullHistoryFile, err := config.GetConfigFilePath(config.HistoryFile)
	if err != nil {
		fmt.Println("Error saving history file:", err)
		return 0, nil
	}
	if f, err := os.OpenFile(fullHistoryFile, os.O_RDWR, 0666); err == nil {
		_, err = t.line.WriteHistory(f)
		if err != nil {
			fmt.Println("readline history error:", err)
		}
		f.Close()
	}
	return 0, nil
}
