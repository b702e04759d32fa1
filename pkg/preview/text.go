package preview

import (
	"bytes"
	"context"
	"strings"

	"github.com/karufm/karu/pkg/chroma2tcell"
	"github.com/karufm/karu/pkg/files"
)

const binarySniffLen = 1024

// buildText reads the leading bytes of a file and turns them into
// display lines. Binary-looking content is never rendered as text.
func (p *Pipeline) buildText(ctx context.Context, entry files.Entry) State {
	if err := ctx.Err(); err != nil {
		return errorState(err)
	}
	data, err := p.store.ReadBytes(entry.Path, p.opts.MaxTextBytes)
	if err != nil {
		return errorState(err)
	}
	if looksBinary(data) {
		return State{Kind: KindNotApplicable, Reason: "binary file"}
	}

	truncated := len(data) >= p.opts.MaxTextBytes
	text := string(data)
	if p.opts.Colorize {
		if colorized, err := chroma2tcell.ColorizeForFile(entry.Name, text); err == nil {
			text = colorized
		} else {
			p.log.WithError(err).WithField("path", entry.Path).Debug("colorize failed")
		}
	}

	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if len(lines) > p.opts.MaxTextLines {
		lines = lines[:p.opts.MaxTextLines]
		truncated = true
	}
	return State{Kind: KindText, Lines: lines, Truncated: truncated}
}

// looksBinary sniffs the first kilobyte for NUL bytes, the same
// heuristic grep and git use.
func looksBinary(data []byte) bool {
	sniff := data
	if len(sniff) > binarySniffLen {
		sniff = sniff[:binarySniffLen]
	}
	return bytes.IndexByte(sniff, 0) >= 0
}
