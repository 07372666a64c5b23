package http

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// newRequestLogger logs like middleware.Logger except for quiet paths.
// A quiet path ending in "/" silences everything below it.
func newRequestLogger(quiet ...string) func(next http.Handler) http.Handler {
	f := &quietLogFormatter{
		exact: make(map[string]struct{}),
		base: &middleware.DefaultLogFormatter{
			Logger:  log.New(os.Stdout, "", log.LstdFlags),
			NoColor: true,
		},
	}
	for _, p := range quiet {
		if strings.HasSuffix(p, "/") {
			f.prefixes = append(f.prefixes, p)
			continue
		}
		f.exact[p] = struct{}{}
	}
	return middleware.RequestLogger(f)
}

type quietLogFormatter struct {
	exact    map[string]struct{}
	prefixes []string
	base     middleware.LogFormatter
}

func (f *quietLogFormatter) quiet(path string) bool {
	if _, ok := f.exact[path]; ok {
		return true
	}
	for _, p := range f.prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (f *quietLogFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	if f.quiet(r.URL.Path) {
		return discardEntry{}
	}
	return f.base.NewLogEntry(r)
}

type discardEntry struct{}

func (discardEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, extra interface{}) {
}

func (discardEntry) Panic(v interface{}, stack []byte) {}
