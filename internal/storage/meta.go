package storage

import (
	"fmt"

	"github.com/devlink-io/devlink/pkg/protocol"
)

// Stat returns the size of a file. The device reports metadata for files
// only; stat on a directory fails with a device status.
func (c *Client) Stat(path string) (uint32, error) {
	env, err := c.s.Roundtrip(protocol.StatRequest{Path: path})
	if err != nil {
		return 0, err
	}
	res, ok := env.Content.(protocol.StatResponse)
	if !ok {
		return 0, fmt.Errorf("storage: stat answered with %T", env.Content)
	}
	if res.File == nil {
		return 0, fmt.Errorf("storage: stat of %s returned no metadata", path)
	}
	return res.File.Size, nil
}

// Md5 asks the device to hash a file on its own storage and returns the
// hex digest.
func (c *Client) Md5(path string) (string, error) {
	env, err := c.s.Roundtrip(protocol.Md5sumRequest{Path: path})
	if err != nil {
		return "", err
	}
	res, ok := env.Content.(protocol.Md5sumResponse)
	if !ok {
		return "", fmt.Errorf("storage: md5sum answered with %T", env.Content)
	}
	return res.Sum, nil
}

// Rename moves a file or directory.
func (c *Client) Rename(oldPath, newPath string) error {
	_, err := c.s.Roundtrip(protocol.RenameRequest{OldPath: oldPath, NewPath: newPath})
	return err
}

// ExtractTar unpacks an archive already on the device into outPath.
func (c *Client) ExtractTar(tarPath, outPath string) error {
	_, err := c.s.Roundtrip(protocol.TarExtractRequest{TarPath: tarPath, OutPath: outPath})
	return err
}
