package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"slices"
	"sync"
)

// TimeFormat is the layout of the "time" field of every event line.
const TimeFormat = "2006-01-02 15:04:05"

// jsonlHandler writes each record as one JSON object per line. Unlike
// slog.JSONHandler it drops the level and message and formats the time with
// TimeFormat, so lines read as plain data rows.
type jsonlHandler struct {
	out    io.Writer
	mu     *sync.Mutex
	attrs  []slog.Attr
	groups []string
}

func newJSONLHandler(out io.Writer) *jsonlHandler {
	return &jsonlHandler{out: out, mu: &sync.Mutex{}}
}

func (h *jsonlHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

func (h *jsonlHandler) Handle(_ context.Context, r slog.Record) error {
	row := make(map[string]any, r.NumAttrs()+len(h.attrs)+1)
	row["time"] = r.Time.Format(TimeFormat)

	addAttrs(row, h.attrs)

	attrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	addAttrs(row, nest(h.groups, attrs))

	data, err := json.Marshal(row)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.out.Write(append(data, '\n'))
	return err
}

func (h *jsonlHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(slices.Clip(h.attrs), nest(h.groups, attrs)...)
	return &clone
}

func (h *jsonlHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(slices.Clip(h.groups), name)
	return &clone
}

// nest wraps attrs in the open groups, innermost last.
func nest(groups []string, attrs []slog.Attr) []slog.Attr {
	if len(attrs) == 0 {
		return nil
	}
	for i := len(groups) - 1; i >= 0; i-- {
		attrs = []slog.Attr{{Key: groups[i], Value: slog.GroupValue(attrs...)}}
	}
	return attrs
}

func addAttrs(dst map[string]any, attrs []slog.Attr) {
	for _, a := range attrs {
		a.Value = a.Value.Resolve()
		if a.Equal(slog.Attr{}) {
			continue
		}

		if a.Value.Kind() != slog.KindGroup {
			if v := a.Value.Any(); v != nil {
				dst[a.Key] = v
			}
			continue
		}

		group := a.Value.Group()
		if a.Key == "" {
			addAttrs(dst, group)
			continue
		}
		sub, ok := dst[a.Key].(map[string]any)
		if !ok {
			sub = make(map[string]any, len(group))
			dst[a.Key] = sub
		}
		addAttrs(sub, group)
	}
}
