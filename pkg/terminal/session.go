package terminal

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	lru "github.com/hashicorp/golang-lru"

	"github.com/go-delve/memscan/pkg/proc"
)

// session holds the search state for one target process and element
// type.
type session[T proc.Value] struct {
	t       *Term
	p       proc.Process
	scanner *proc.Scanner[T]

	regions []proc.Region
	addrs   []uint64
	scanned bool // at least one round ran since the last snapshot

	// listed remembers the value each address had when it was last
	// printed by the list command.
	listed *lru.Cache
}

func runSession[T proc.Value](t *Term, p proc.Process) error {
	size := t.conf.GetMaxListCandidates()
	if size < 1 {
		size = 1
	}
	listed, err := lru.New(size)
	if err != nil {
		return err
	}
	s := &session[T]{
		t:       t,
		p:       p,
		scanner: proc.NewScanner[T](p, t.order),
		listed:  listed,
	}
	return s.run()
}

func (s *session[T]) run() error {
	for {
		if err := s.snapshot(); err != nil {
			return err
		}
		again, err := s.narrow()
		if err != nil || !again {
			return err
		}
	}
}

// snapshot captures the target memory, discarding the candidates.
func (s *session[T]) snapshot() error {
	regions, err := proc.Snapshot(s.p)
	if err != nil {
		return err
	}
	s.regions, s.addrs, s.scanned = regions, nil, false
	s.listed.Purge()

	total := proc.TotalSize(regions)
	s.t.printf("Total bytes read: %d, %d MiB\n", total, total>>20)
	s.t.printf("%d memory regions\n", len(regions))
	return nil
}

// narrow runs scan rounds until a new snapshot is needed, in which case it
// returns true, or the operator exits.
func (s *session[T]) narrow() (bool, error) {
	for {
		if s.scanned {
			switch len(s.addrs) {
			case 0:
				again, err := yesno(s.t.line, s.t.stdout, "No valid addresses! Would you like to try again? (Y/N): ")
				if err != nil || !again {
					return false, err
				}
				return true, nil
			case 1:
				fmt.Fprintln(s.t.stdout, "Only one valid address, reading value")
				return true, s.monitor(s.addrs[0])
			}
		}

		cmdstr, err := s.t.promptForInput(searchPrompt)
		if err != nil {
			return false, err
		}
		err = s.t.cmds.Call(cmdstr, s.t, callContext{s: s})
		if err == nil {
			continue
		}
		var rerr resetRequestError
		if errors.As(err, &rerr) {
			return true, nil
		}
		var ere ExitRequestError
		if errors.As(err, &ere) || proc.IsFatal(err) {
			return false, err
		}
		s.t.printf("Command failed: %s\n", err)
	}
}

func (s *session[T]) search(spec searchSpec) error {
	keep, err := buildPredicate[T](spec)
	if err != nil {
		return err
	}
	if spec.expr != nil {
		spec.expr.reset()
	}
	s.t.printf("Searching %s...\n", spec)

	if !s.scanned {
		s.regions, s.addrs, err = s.scanner.ScanUnconstrained(s.regions, keep)
	} else {
		s.regions, s.addrs, err = s.scanner.ScanConstrained(s.regions, s.addrs, keep)
	}
	if err != nil {
		return err
	}
	s.scanned = true

	if spec.expr != nil && spec.expr.failures > 0 {
		s.t.printf("%s expression failed for %d values: %v\n", s.t.colorize(ansiYellow, "Warning:"), spec.expr.failures, spec.expr.err)
	}
	s.t.printf("%d valid addresses\n", len(s.addrs))
	return nil
}

func (s *session[T]) list(args string) error {
	limit := s.t.conf.GetMaxListCandidates()
	if args != "" {
		n, err := strconv.Atoi(args)
		if err != nil || n < 0 {
			return &proc.ConfigurationError{Msg: fmt.Sprintf("invalid number of addresses %q", args)}
		}
		limit = n
	}
	if !s.scanned {
		fmt.Fprintln(s.t.stdout, "No search yet, every address is a candidate.")
		return nil
	}

	codec := s.scanner.Codec()
	buf := make([]byte, codec.Size())
	shown := s.addrs
	if len(shown) > limit {
		shown = shown[:limit]
	}
	for _, addr := range shown {
		addrstr := s.t.colorize(ansiCyan, fmt.Sprintf("0x%016x", addr))
		n, err := s.p.ReadMemory(buf, addr)
		if err != nil {
			return err
		}
		if n < len(buf) {
			s.t.printf("%s  %s\n", addrstr, s.t.colorize(ansiRed, "unreadable"))
			continue
		}
		v, _ := codec.Decode(buf, 0)
		if old, ok := s.listed.Get(addr); ok && old.(T) != v {
			s.t.printf("%s  %v (was %v)\n", addrstr, v, old)
		} else {
			s.t.printf("%s  %v\n", addrstr, v)
		}
		s.listed.Add(addr, v)
	}
	if len(shown) < len(s.addrs) {
		s.t.printf("(%d more)\n", len(s.addrs)-len(shown))
	}
	return nil
}

// monitor prints the value at addr every time it changes, until SIGINT.
func (s *session[T]) monitor(addr uint64) error {
	stop := s.t.notifyInterrupt(s.t.interrupt)
	defer stop()

	// drop a stale interrupt
	select {
	case <-s.t.interrupt:
	default:
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.t.interrupt:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.t.Println("monitoring ", fmt.Sprintf("%#x (Ctrl-C to search again)", addr))
	m := proc.NewMonitor[T](s.p, addr, s.t.order, s.t.conf.GetMonitorInterval())
	err := m.Watch(ctx, func(v T) error {
		_, err := fmt.Fprintln(s.t.stdout, v)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(s.t.stdout)
	return nil
}
