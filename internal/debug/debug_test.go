package debug

import (
	"bytes"
	"log"
	"strings"
	"testing"
	"time"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags, prevEnabled := log.Writer(), log.Flags(), enabled
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
		enabled = prevEnabled
	})
	return &buf
}

func TestDisabledIsSilent(t *testing.T) {
	buf := captureLog(t)
	SetEnabled(false)

	Log("hello %d", 1)
	LogIf(true, "cond")
	LogTiming("x", time.Now())
	Dump("v", 1)

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestEnabledLogs(t *testing.T) {
	buf := captureLog(t)
	SetEnabled(true)

	Log("hello %d", 1)
	LogIf(false, "skipped")
	LogTiming("pass", time.Now())

	out := buf.String()
	if !strings.Contains(out, "[debug] hello 1") {
		t.Errorf("missing log line in %q", out)
	}
	if strings.Contains(out, "skipped") {
		t.Errorf("LogIf(false) should not log")
	}
	if !strings.Contains(out, "pass took") {
		t.Errorf("missing timing line in %q", out)
	}
}

func TestSdump(t *testing.T) {
	type node struct {
		Name     string
		Children []*node
	}
	out := Sdump(&node{Name: "root", Children: []*node{{Name: "leaf"}}})
	if !strings.Contains(out, `"root"`) || !strings.Contains(out, `"leaf"`) {
		t.Errorf("unexpected dump %q", out)
	}
	if strings.Contains(out, "0x") {
		t.Errorf("dump should not contain pointer addresses: %q", out)
	}
}
