package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
)

// debugCallCounter numbers calls logged under REPO_ANALYZER_DEBUG_PROMPT_DIR.
var debugCallCounter uint64

// debugProvider writes every request and response of next to dir as
// call_NNN_request.json and call_NNN_response.json.
type debugProvider struct {
	next Provider
	dir  string
}

type debugRecord struct {
	Provider string    `json:"provider"`
	Messages []Message `json:"messages,omitempty"`
	Content  string    `json:"content,omitempty"`
	Error    string    `json:"error,omitempty"`
}

func (d *debugProvider) Name() string { return d.next.Name() }

func (d *debugProvider) Generate(ctx context.Context, messages []Message, opts ...Option) (string, error) {
	n := atomic.AddUint64(&debugCallCounter, 1)
	_ = os.MkdirAll(d.dir, 0o755)
	d.dump(fmt.Sprintf("call_%03d_request.json", n), debugRecord{Provider: d.next.Name(), Messages: messages})

	out, err := d.next.Generate(ctx, messages, opts...)

	rec := debugRecord{Provider: d.next.Name(), Content: out}
	if err != nil {
		rec.Error = err.Error()
	}
	d.dump(fmt.Sprintf("call_%03d_response.json", n), rec)
	return out, err
}

func (d *debugProvider) dump(name string, rec debugRecord) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(filepath.Join(d.dir, name), data, 0o644)
}
