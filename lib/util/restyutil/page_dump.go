package restyutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// PageDump writes every response body of a client to a directory, one file
// per response, which is how new page fixtures are captured.
type PageDump struct {
	directory string
	counter   *uint64
}

func NewPageDump(dir string) (PageDump, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return PageDump{}, err
	}
	var counter uint64
	return PageDump{directory: dir, counter: &counter}, nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// FileName derives a stable file name out of the sequence number and the
// request path, e.g. 003-regclasse.php.html.
func FileName(seq uint64, path string) string {
	base := filepath.Base(strings.TrimSuffix(path, "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	if base == "" || base == "." || base == "_" {
		base = "index"
	}
	return fmt.Sprintf("%03d-%s.html", seq, base)
}

func (d PageDump) Write(name string, contents []byte) {
	err := os.WriteFile(filepath.Join(d.directory, name), contents, 0o600)
	if err != nil {
		slog.Warn("failed to write page dump", "name", name, "err", err)
	}
}

// Attach registers the dump on the client's response hooks.
func (d PageDump) Attach(client *resty.Client) {
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		seq := atomic.AddUint64(d.counter, 1)
		path := ""
		if res.RawResponse != nil && res.RawResponse.Request != nil {
			path = res.RawResponse.Request.URL.Path
		}
		d.Write(FileName(seq, path), res.Body())
		return nil
	})
}
