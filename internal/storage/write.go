package storage

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/devlink-io/devlink/internal/progress"
	"github.com/devlink-io/devlink/internal/session"
	"github.com/devlink-io/devlink/pkg/protocol"
)

// WriteFile uploads data to path as a chain of chunked write frames, then
// asks the device to hash the result and compares it against the local
// hash. Long chains get keep-alive pings injected between chunks so the
// device does not drop an apparently idle session. events may be nil.
func (c *Client) WriteFile(path string, data []byte, events chan<- progress.Event) error {
	localSum := md5.Sum(data)
	local := hex.EncodeToString(localSum[:])
	total := int64(len(data))

	c.log.Debug("writing file", "path", path, "size", total)

	// An empty file is still one frame, with an empty chunk.
	chunks := [][]byte{nil}
	if len(data) > 0 {
		chunks = chunks[:0]
		for len(data) > 0 {
			n := min(len(data), c.opts.ChunkSize)
			chunks = append(chunks, data[:n])
			data = data[n:]
		}
	}

	var sent int64
	lastActive := c.now()
	var x *session.Exchange
	for i, chunk := range chunks {
		hasNext := i < len(chunks)-1
		chunkSum := md5.Sum(chunk)
		req := protocol.WriteRequest{
			Path: path,
			File: &protocol.File{
				Size: uint32(len(chunk)),
				Data: chunk,
				MD5:  hex.EncodeToString(chunkSum[:]),
			},
		}

		var err error
		if x == nil {
			x, err = c.s.Begin(req, hasNext)
		} else {
			err = x.Send(req, hasNext)
		}
		if err != nil {
			return err
		}

		sent += int64(len(chunk))
		progress.Emit(events, progress.Event{Bytes: sent, Total: total})

		// The ping runs on its own command index and completes before the
		// next write frame goes out, so the chunk chain stays intact.
		if hasNext && c.now().Sub(lastActive) >= c.opts.KeepAliveInterval {
			if _, err := c.s.Ping(nil); err != nil {
				return fmt.Errorf("storage: keep-alive: %w", err)
			}
			lastActive = c.now()
		}
	}

	if _, err := x.Collect(); err != nil {
		return err
	}

	remote, err := c.Md5(path)
	if err != nil {
		return err
	}
	if remote != local {
		return fmt.Errorf("%w: %s: local %s, device %s", ErrVerification, path, local, remote)
	}
	return nil
}
