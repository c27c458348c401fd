package doc

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// maxLineSize bounds a single JSONL document.
const maxLineSize = 64 * 1024 * 1024

type Value struct {
	Doc *Doc
	// Raw is the undecoded line, kept so callers can digest it for caching.
	Raw []byte
	Err error
}

// Read decodes and validates a single JSON document.
func Read(r io.Reader) (*Doc, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(b)
}

// Decode decodes and validates a single JSON document.
func Decode(b []byte) (*Doc, error) {
	var d Doc
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDoc, err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

type Reader struct{}

func NewReader() Reader {
	return Reader{}
}

// ReadDocs streams JSONL documents. The channel ends with a Value whose Err is
// io.EOF, or with the first read error.
func (Reader) ReadDocs(r io.Reader) <-chan Value {
	values := make(chan Value)
	go readLines(r, values)
	return values
}

func (dr Reader) ReadDocsWithCallback(r io.Reader, onDoc func(*Doc, []byte) error) error {
	return ReadChannelWithCallback(dr.ReadDocs(r), onDoc)
}

// ReadChannelWithCallback drains values, stopping at io.EOF or the first error.
func ReadChannelWithCallback(values <-chan Value, callback func(*Doc, []byte) error) error {
	for value := range values {
		if value.Err == io.EOF {
			break
		} else if value.Err != nil {
			return value.Err
		}
		if err := callback(value.Doc, value.Raw); err != nil {
			// drain so the reading goroutine can exit
			go func() {
				for range values {
				}
			}()
			return err
		}
	}
	return nil
}

// ReadRawWithCallback passes every non-blank JSONL line to onRaw without
// decoding it, for callers that decode later.
func (Reader) ReadRawWithCallback(r io.Reader, onRaw func([]byte) error) error {
	scanner := newLineScanner(r)
	for scanner.Scan() {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		if err := onRaw(append([]byte(nil), raw...)); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return scanner
}

func readLines(r io.Reader, values chan Value) {
	defer close(values)
	scanner := newLineScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		raw = append([]byte(nil), raw...)
		d, err := Decode(raw)
		if err != nil {
			values <- Value{Err: fmt.Errorf("line %d: %w", line, err)}
			return
		}
		values <- Value{Doc: d, Raw: raw}
	}
	if err := scanner.Err(); err != nil {
		values <- Value{Err: err}
		return
	}
	values <- Value{Err: io.EOF}
}
