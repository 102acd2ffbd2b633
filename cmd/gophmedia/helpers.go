package main

import (
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/dmitrijs2005/gophmedia/internal/filex"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid attachment id %q", s)
	}
	return id, nil
}

// writeOutput writes r to path, or to stdout when path is "-".
func writeOutput(stdout io.Writer, path string, r io.Reader) (int64, error) {
	if path == "-" {
		return io.Copy(stdout, r)
	}
	return filex.WriteFileAtomic(path, r)
}

// progressPrinter prints whole-percent progress steps to w.
type progressPrinter struct {
	mu    sync.Mutex
	w     io.Writer
	label string
	last  int64
}

func newProgressPrinter(w io.Writer, label string) *progressPrinter {
	return &progressPrinter{w: w, label: label, last: -1}
}

func (p *progressPrinter) OnUpdate(current, total int64) {
	if total <= 0 {
		return
	}
	pct := current * 100 / total
	p.mu.Lock()
	defer p.mu.Unlock()
	if pct == p.last {
		return
	}
	p.last = pct
	fmt.Fprintf(p.w, "\r%s %3d%%", p.label, pct)
	if pct >= 100 {
		fmt.Fprintln(p.w)
	}
}
