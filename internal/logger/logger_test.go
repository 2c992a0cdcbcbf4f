package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestNewSlog_AttachesContextFields(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "debug", Component: "discovery"}, &buf)
	log := NewSlog(&zl)

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithScreen(ctx, "scr-1")
	ctx = WithSelection(ctx, "sel=00000000000000ff")
	ctx = WithGeneration(ctx, 7)
	log.InfoContext(ctx, "candidates committed", "points", 3)

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	want := map[string]any{
		"msg":        "candidates committed",
		"component":  "discovery",
		"request_id": "req-1",
		"screen":     "scr-1",
		"selection":  "sel=00000000000000ff",
		"generation": float64(7),
		"points":     float64(3),
		"level":      "info",
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("field %q=%v want %v (line=%s)", k, got[k], v, buf.String())
		}
	}
}

func TestWithRequestID_GeneratesWhenEmpty(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	id, _ := ctx.Value(ctxReqIDKey).(string)
	if len(id) != 16 {
		t.Fatalf("generated id=%q want 16 hex chars", id)
	}
}
