package storage

import (
	"fmt"
	"unicode/utf8"

	"github.com/devlink-io/devlink/internal/progress"
	"github.com/devlink-io/devlink/pkg/protocol"
)

// ReadFile downloads path and returns its contents. With PrefetchStat set,
// a missing file fails here before any data moves and progress events
// carry the final size. events may be nil; sends to it never block.
func (c *Client) ReadFile(path string, events chan<- progress.Event) ([]byte, error) {
	var total int64
	if c.opts.PrefetchStat {
		size, err := c.Stat(path)
		if err != nil {
			return nil, err
		}
		total = int64(size)
	}

	c.log.Debug("reading file", "path", path, "total", total)
	x, err := c.s.Begin(protocol.ReadRequest{Path: path}, false)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, total)
	for {
		env, err := x.Next()
		if err != nil {
			return nil, err
		}
		res, ok := env.Content.(protocol.ReadResponse)
		if !ok {
			return nil, fmt.Errorf("storage: read answered with %T", env.Content)
		}
		if res.File != nil {
			data = append(data, res.File.Data...)
		}
		progress.Emit(events, progress.Event{Bytes: int64(len(data)), Total: total})
		if !env.HasNext {
			return data, nil
		}
	}
}

// ReadString is ReadFile for text files; it rejects contents that are not
// valid UTF-8.
func (c *Client) ReadString(path string) (string, error) {
	data, err := c.ReadFile(path, nil)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s", ErrInvalidUTF8, path)
	}
	return string(data), nil
}
