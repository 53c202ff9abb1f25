package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetLevel("info")

	SetLevel("warn")
	Infof("hidden %d", 1)
	Warnf("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message should be filtered: ", out)
	}
	if !strings.Contains(out, "shown 2") {
		t.Error("warn message missing: ", out)
	}

	buf.Reset()
	SetLevel("bogus")
	Info("fallback", "level", "info")
	if !strings.Contains(buf.String(), "fallback") {
		t.Error("unknown level should select info: ", buf.String())
	}
}
