package events

import "github.com/spf13/afero"

// Handler receives download lifecycle notifications. Handlers observe only;
// they must not block for long and cannot fail a download.
type Handler interface {
	ContentLength(length int64)
	Write(p []byte)
	Finish(file afero.File)
}

// Nop can be embedded by handlers interested in a subset of events.
type Nop struct{}

func (Nop) ContentLength(int64) {}
func (Nop) Write([]byte)        {}
func (Nop) Finish(afero.File)   {}

// Handlers fans each event out to every registered handler in
// registration order.
type Handlers []Handler

func New(handlers ...Handler) Handlers {
	return Handlers(nil).Add(handlers...)
}

func (hs Handlers) Add(handlers ...Handler) Handlers {
	for _, h := range handlers {
		if h != nil {
			hs = append(hs, h)
		}
	}
	return hs
}

func (hs Handlers) ContentLength(length int64) {
	for _, h := range hs {
		h.ContentLength(length)
	}
}

func (hs Handlers) Write(p []byte) {
	for _, h := range hs {
		h.Write(p)
	}
}

func (hs Handlers) Finish(file afero.File) {
	for _, h := range hs {
		h.Finish(file)
	}
}
