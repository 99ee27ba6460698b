package session

import (
	"fmt"
	"os"
)

const debugDumpFile = "debug.jsonl"

// frameDump appends raw upstream frames to a JSONL file for offline
// protocol debugging.
type frameDump struct {
	f *os.File
}

func openFrameDump(path string) (*frameDump, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open frame dump: %w", err)
	}
	return &frameDump{f: f}, nil
}

// append writes the frame as one JSONL line. Frames arrive from the
// read loop only, so a single buffered write keeps lines intact.
func (d *frameDump) append(raw []byte) error {
	line := make([]byte, 0, len(raw)+1)
	line = append(line, raw...)
	line = append(line, '\n')
	_, err := d.f.Write(line)
	return err
}

func (d *frameDump) Close() error { return d.f.Close() }
