package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestCIReporterOutput(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{Out: &buf}

	r.Start(5)
	r.Update(2, "embedded 2/5 segments")
	r.Finish()

	out := buf.String()
	if !strings.Contains(out, "Embedding 5 changed segments") {
		t.Errorf("start line missing or mislabeled:\n%s", out)
	}
	if !strings.Contains(out, "[2/5] embedded 2/5 segments") {
		t.Errorf("update line missing:\n%s", out)
	}
	if !strings.Contains(out, "Index sync complete") {
		t.Errorf("finish line missing:\n%s", out)
	}
}

func TestSilentDiscardsOutput(t *testing.T) {
	r := Silent()

	// Must not panic or write anywhere observable.
	r.Start(3)
	r.Update(1, "embedded 1/3 segments")
	r.Finish()
}
