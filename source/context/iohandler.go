package context

import (
	"bytes"
	"io"
	"os"
)

// An OutputSink is the scoped destination for everything a request writes.
// Finalize is invoked exactly once, by the Lifecycle Coordinator, during
// teardown.
type OutputSink interface {
	Write(s string)
	Finalize() error
}

// A BufferedOutput accumulates output and flushes it to the underlying writer
// at finalization. A nil writer makes it a pure capture buffer, which is what
// the tests use.
type BufferedOutput struct {
	buf bytes.Buffer
	out io.Writer
}

func MakeBufferedOutput(out io.Writer) *BufferedOutput {
	return &BufferedOutput{out: out}
}

func (b *BufferedOutput) Write(s string) {
	b.buf.WriteString(s)
}

func (b *BufferedOutput) Finalize() error {
	if b.out == nil {
		return nil
	}
	_, e := b.out.Write(b.buf.Bytes())
	b.buf.Reset()
	return e
}

// String returns what has been buffered and not yet flushed.
func (b *BufferedOutput) String() string {
	return b.buf.String()
}

// A FileReader is the best-effort capability used to stream a raw file as
// output when no compiled module matches an include path.
type FileReader interface {
	ReadFile(path string) (string, error)
}

type OsFileReader struct{}

func (OsFileReader) ReadFile(path string) (string, error) {
	content, e := os.ReadFile(path)
	return string(content), e
}
