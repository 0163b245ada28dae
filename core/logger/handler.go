package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"
)

type logFormat int

const (
	formatJSON logFormat = iota
	formatKV
)

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"update_id",
	"user_id",
	"chat_id",
	"state",
	"duration",
	"err",
}

type handlerConfig struct {
	level    slog.Leveler
	out      io.Writer
	format   logFormat
	keyOrder []string
}

// structuredHandler renders records with a deterministic key order so that the
// same field always appears at the same position in every line.
type structuredHandler struct {
	cfg   handlerConfig
	attrs []slog.Attr
	mu    *sync.Mutex
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	return &structuredHandler{cfg: cfg, mu: &sync.Mutex{}}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.cfg.level != nil {
		min = h.cfg.level.Level()
	}
	return level >= min
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *structuredHandler) WithGroup(string) slog.Handler { return h }

func (h *structuredHandler) Handle(_ context.Context, rec slog.Record) error {
	fields := make(map[string]string, rec.NumAttrs()+len(h.attrs)+3)
	order := make([]string, 0, rec.NumAttrs()+len(h.attrs)+3)

	put := func(key, value string) {
		if _, seen := fields[key]; !seen {
			order = append(order, key)
		}
		fields[key] = value
	}

	put("ts", rec.Time.UTC().Format(time.RFC3339Nano))
	put("level", rec.Level.String())
	for _, a := range h.attrs {
		put(a.Key, attrValue(a.Value))
	}
	if _, ok := fields["event"]; !ok {
		put("event", rec.Message)
	}
	rec.Attrs(func(a slog.Attr) bool {
		put(a.Key, attrValue(a.Value))
		return true
	})

	keys := orderKeys(order, h.cfg.keyOrder)

	var line string
	switch h.cfg.format {
	case formatKV:
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			v := fields[k]
			if k == "rid" {
				v = CompactRID(v)
			}
			if strings.ContainsAny(v, " \t\"") {
				v = strconv.Quote(v)
			}
			parts = append(parts, k+"="+v)
		}
		line = strings.Join(parts, " ")
	default:
		buf := &strings.Builder{}
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			vb, _ := json.Marshal(fields[k])
			buf.Write(kb)
			buf.WriteByte(':')
			buf.Write(vb)
		}
		buf.WriteByte('}')
		line = buf.String()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.cfg.out, line+"\n")
	return err
}

// orderKeys places known keys first in their canonical order, then the rest in
// insertion order.
func orderKeys(present, canonical []string) []string {
	seen := make(map[string]bool, len(present))
	for _, k := range present {
		seen[k] = true
	}
	out := make([]string, 0, len(present))
	picked := make(map[string]bool, len(present))
	for _, k := range canonical {
		if seen[k] {
			out = append(out, k)
			picked[k] = true
		}
	}
	for _, k := range present {
		if !picked[k] {
			out = append(out, k)
		}
	}
	return out
}

func attrValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v.Any())
	}
}
