package storage

import (
	"fmt"

	"github.com/devlink-io/devlink/pkg/protocol"
)

// DirEntry is one listing result.
type DirEntry struct {
	Name string
	Dir  bool
	Size uint32
	MD5  string
}

// ReadDir lists the entries of path. Large directories arrive over several
// continuation frames; the full listing is returned once assembled.
func (c *Client) ReadDir(path string, includeMD5 bool) ([]DirEntry, error) {
	envs, err := c.s.Command(protocol.ListRequest{Path: path, IncludeMD5: includeMD5})
	if err != nil {
		return nil, err
	}
	var entries []DirEntry
	for _, env := range envs {
		res, ok := env.Content.(protocol.ListResponse)
		if !ok {
			return nil, fmt.Errorf("storage: list answered with %T", env.Content)
		}
		for _, f := range res.Files {
			entries = append(entries, DirEntry{
				Name: f.Name,
				Dir:  f.Type == protocol.FileTypeDir,
				Size: f.Size,
				MD5:  f.MD5,
			})
		}
	}
	return entries, nil
}

// Mkdir creates a directory. A directory that already exists counts as
// success.
func (c *Client) Mkdir(path string) error {
	_, err := c.s.Roundtrip(protocol.MkdirRequest{Path: path})
	if protocol.StatusOf(err) == protocol.StatusErrorStorageExist {
		return nil
	}
	return err
}

// Remove deletes path; recursive is required for non-empty directories.
func (c *Client) Remove(path string, recursive bool) error {
	_, err := c.s.Roundtrip(protocol.DeleteRequest{Path: path, Recursive: recursive})
	return err
}
