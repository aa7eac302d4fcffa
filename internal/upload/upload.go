// Package upload stores files content-addressed on local disk.
package upload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"chatapp-client/internal/chaterr"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const URLPrefix = "/cdn/"

type Result struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
}

type Storage struct {
	dir      string
	maxBytes int
	sugar    *zap.SugaredLogger

	mutex sync.Mutex
}

func New(dir string, maxBytes int, sugar *zap.SugaredLogger) *Storage {
	return &Storage{dir: dir, maxBytes: maxBytes, sugar: sugar}
}

func (s *Storage) Dir() string {
	return s.dir
}

// Upload saves data under the hash of its content with an extension taken
// from its detected type. Uploading the same bytes twice yields the same URL.
func (s *Storage) Upload(ctx context.Context, data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, chaterr.Invalid("empty upload")
	}
	if s.maxBytes > 0 && len(data) > s.maxBytes {
		return Result{}, chaterr.Invalid("upload larger than %d bytes", s.maxBytes)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	mime := mimetype.Detect(data)

	// use the hash for filename
	hash := sha256.Sum256(data)
	fileName := hex.EncodeToString(hash[:]) + mime.Extension()
	fullPath := filepath.Join(s.dir, fileName)

	result := Result{URL: URLPrefix + fileName, Name: fileName, MimeType: mime.String()}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	err := os.MkdirAll(s.dir, os.ModePerm)
	if err != nil {
		return Result{}, err
	}

	// same content is already stored
	_, err = os.Stat(fullPath)
	if err == nil {
		s.sugar.Debugf("Upload %s exists already", fileName)
		return result, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Result{}, err
	}

	// write next to the target and rename so readers never see half a file
	tmp := filepath.Join(s.dir, "."+uuid.NewString()+".tmp")
	err = os.WriteFile(tmp, data, 0644)
	if err != nil {
		return Result{}, err
	}

	err = os.Rename(tmp, fullPath)
	if err != nil {
		_ = os.Remove(tmp)
		return Result{}, err
	}

	s.sugar.Debugf("Stored upload %s (%s)", fileName, result.MimeType)
	return result, nil
}
