// Package transfer reports byte progress of attachment streams.
package transfer

import "io"

// Observer is notified as bytes move through a stream. total is -1 when the
// size is unknown.
type Observer interface {
	OnUpdate(current, total int64)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(current, total int64)

func (f ObserverFunc) OnUpdate(current, total int64) { f(current, total) }

// ProgressReader counts bytes read from R.
type ProgressReader struct {
	r        io.Reader
	total    int64
	current  int64
	observer Observer
}

// NewReader wraps r. A nil observer disables reporting.
func NewReader(r io.Reader, total int64, observer Observer) *ProgressReader {
	return &ProgressReader{r: r, total: total, observer: observer}
}

func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.current += int64(n)
		if p.observer != nil {
			p.observer.OnUpdate(p.current, p.total)
		}
	}
	return n, err
}

// ProgressWriter counts bytes written to W.
type ProgressWriter struct {
	w        io.Writer
	total    int64
	current  int64
	observer Observer
}

// NewWriter wraps w. A nil observer disables reporting.
func NewWriter(w io.Writer, total int64, observer Observer) *ProgressWriter {
	return &ProgressWriter{w: w, total: total, observer: observer}
}

func (p *ProgressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	if n > 0 {
		p.current += int64(n)
		if p.observer != nil {
			p.observer.OnUpdate(p.current, p.total)
		}
	}
	return n, err
}
