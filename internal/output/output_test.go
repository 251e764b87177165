package output

import (
	"bytes"
	"context"
	"os"
	"testing"
)

func TestWithPrinter_FromContext(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		var out, errw bytes.Buffer
		ctx := WithPrinter(context.Background(), New(&out, &errw))
		p := FromContext(ctx)
		if p == nil {
			t.Fatal("FromContext returned nil")
		}
		if p.Writer() != &out {
			t.Error("Writer() should return the writer passed to New")
		}
	})

	t.Run("default to stdout when not set", func(t *testing.T) {
		t.Parallel()
		p := FromContext(context.Background())
		if p == nil {
			t.Fatal("FromContext returned nil on empty context")
		}
		if p.Writer() != os.Stdout {
			t.Error("Writer() should default to os.Stdout")
		}
	})
}

func TestPrinter_Print(t *testing.T) {
	t.Parallel()

	var out, errw bytes.Buffer
	p := New(&out, &errw)

	p.Print("hello", " ", "world")
	if got := out.String(); got != "hello world" {
		t.Errorf("Print() wrote %q, want %q", got, "hello world")
	}
	if errw.Len() != 0 {
		t.Errorf("Print() wrote %q to the note writer", errw.String())
	}
}

func TestPrinter_Printf(t *testing.T) {
	t.Parallel()

	var out, errw bytes.Buffer
	p := New(&out, &errw)

	p.Printf("count: %d", 42)
	if got := out.String(); got != "count: 42" {
		t.Errorf("Printf() wrote %q, want %q", got, "count: 42")
	}
}

func TestPrinter_Println(t *testing.T) {
	t.Parallel()

	var out, errw bytes.Buffer
	p := New(&out, &errw)

	p.Println("line one")
	p.Println("line two")
	want := "line one\nline two\n"
	if got := out.String(); got != want {
		t.Errorf("Println() wrote %q, want %q", got, want)
	}
}

func TestPrinter_Notes(t *testing.T) {
	t.Parallel()

	var out, errw bytes.Buffer
	p := New(&out, &errw)

	p.Println("PROJ-1\tFix login")
	p.Notef("cached %s ago\n", "3m")

	if got := out.String(); got != "PROJ-1\tFix login\n" {
		t.Errorf("data output = %q, want issue line only", got)
	}
	if got := errw.String(); got != "cached 3m ago\n" {
		t.Errorf("note output = %q, want provenance note", got)
	}
}

func TestPrinter_Writer(t *testing.T) {
	t.Parallel()

	var out, errw bytes.Buffer
	p := New(&out, &errw)

	w := p.Writer()
	if w != &out {
		t.Error("Writer() should return the primary output writer")
	}

	if _, err := w.Write([]byte("direct")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if got := out.String(); got != "direct" {
		t.Errorf("direct Write produced %q, want %q", got, "direct")
	}
}
