// Package media stores images uploaded with posts.
//
// Files live under <root>/posts/ with generated names; the value kept on a
// post is the path relative to root ("posts/<id>.<ext>"), served at
// /media/<path>.
package media

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/xid"
)

// UploadDir is the subdirectory post images are written to.
const UploadDir = "posts"

// URLPrefix is where the server mounts the media root.
const URLPrefix = "/media/"

var ErrNotImage = errors.New("media: file is not an image")

// Image is an uploaded image that passed content sniffing.
type Image struct {
	Filename string // client-supplied name, informational only
	MIME     string
	Ext      string // extension derived from content, with leading dot
	Data     []byte
}

// Detect sniffs data and returns an Image if it is one. The client's
// filename and Content-Type are not trusted.
func Detect(filename string, data []byte) (*Image, error) {
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}
	return &Image{
		Filename: filename,
		MIME:     mt.String(),
		Ext:      mt.Extension(),
		Data:     data,
	}, nil
}

// Storage writes images below a root directory.
type Storage struct {
	root string
}

// NewStorage creates root/posts if needed.
func NewStorage(root string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Join(root, UploadDir), 0o755); err != nil {
		return nil, fmt.Errorf("media: creating upload dir: %w", err)
	}
	return &Storage{root: root}, nil
}

// Root is the directory served under URLPrefix.
func (s *Storage) Root() string { return s.root }

// Save writes img and returns its relative name.
func (s *Storage) Save(img *Image) (string, error) {
	name := path.Join(UploadDir, xid.New().String()+img.Ext)
	if err := os.WriteFile(filepath.Join(s.root, filepath.FromSlash(name)), img.Data, 0o644); err != nil {
		return "", fmt.Errorf("media: writing %s: %w", name, err)
	}
	return name, nil
}

// Remove deletes a previously saved image. Missing files are ignored.
func (s *Storage) Remove(name string) error {
	if name == "" {
		return nil
	}
	clean := path.Clean("/" + name)[1:]
	if !strings.HasPrefix(clean, UploadDir+"/") {
		return fmt.Errorf("media: refusing to remove %q outside %s/", name, UploadDir)
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("media: removing %s: %w", name, err)
	}
	return nil
}

// URL is the public path for a stored name, or "" when there is no image.
func URL(name string) string {
	if name == "" {
		return ""
	}
	return URLPrefix + name
}
