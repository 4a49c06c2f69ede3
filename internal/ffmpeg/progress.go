// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ffmpeg

import (
	"bytes"
	"strconv"
	"strings"
	"time"
)

// progressWriter parses the key=value blocks ffmpeg writes with
// "-progress pipe:1" and reports percent complete against a known input
// duration. Blocks end with a "progress=continue" or "progress=end" line.
type progressWriter struct {
	duration time.Duration
	report   func(float64)

	buf     bytes.Buffer
	outTime time.Duration
}

func newProgressWriter(duration time.Duration, report func(float64)) *progressWriter {
	return &progressWriter{duration: duration, report: report}
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.buf.Write(b)
	for {
		line, err := p.buf.ReadString('\n')
		if err != nil {
			// Partial line; keep it for the next write.
			p.buf.Reset()
			p.buf.WriteString(line)
			break
		}
		p.handle(strings.TrimSpace(line))
	}
	return len(b), nil
}

func (p *progressWriter) handle(line string) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return
	}
	switch key {
	case "out_time_us", "out_time_ms":
		// Both keys carry microseconds.
		if us, err := strconv.ParseInt(value, 10, 64); err == nil && us >= 0 {
			p.outTime = time.Duration(us) * time.Microsecond
		}
	case "progress":
		if p.report == nil {
			return
		}
		if value == "end" {
			p.report(100)
			return
		}
		if p.duration > 0 {
			pct := float64(p.outTime) / float64(p.duration) * 100
			if pct > 100 {
				pct = 100
			}
			p.report(pct)
		}
	}
}

// tailBuffer keeps the last limit bytes written to it; ffmpeg's error
// message is at the end of stderr.
type tailBuffer struct {
	limit int
	data  []byte
}

func (t *tailBuffer) Write(b []byte) (int, error) {
	t.data = append(t.data, b...)
	if over := len(t.data) - t.limit; over > 0 {
		t.data = t.data[over:]
	}
	return len(b), nil
}

// LastLine returns the last non-empty line.
func (t *tailBuffer) LastLine() string {
	lines := strings.Split(strings.TrimSpace(string(t.data)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
