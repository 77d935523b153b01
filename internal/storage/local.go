package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	ferrors "github.com/arkilian/formstore/internal/errors"
)

// LocalStorage implements ObjectStorage using the local filesystem.
// This is primarily used for testing and single-node deployments.
type LocalStorage struct {
	basePath string
	mu       sync.RWMutex
}

// NewLocalStorage creates a new local filesystem storage.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, ferrors.NewStorageError(ferrors.CodeWriteFailed, "failed to create base directory", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// Get reads an object from local storage.
func (l *LocalStorage) Get(ctx context.Context, objectPath string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.read(objectPath)
}

// Put writes an object to local storage.
func (l *LocalStorage) Put(ctx context.Context, objectPath string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.write(objectPath, data)
}

// ConditionalPut writes only if the precondition is met.
func (l *LocalStorage) ConditionalPut(ctx context.Context, objectPath string, data []byte, etag string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, current, err := l.read(objectPath)
	exists := err == nil
	if err != nil && ferrors.GetCode(err) != ferrors.CodeObjectNotFound {
		return "", err
	}
	if (etag == "" && exists) || (etag != "" && (!exists || current != etag)) {
		return "", ferrors.NewStorageError(ferrors.CodePreconditionFailed, objectPath, ErrPreconditionFailed)
	}
	return l.write(objectPath, data)
}

// Delete removes an object from local storage.
func (l *LocalStorage) Delete(ctx context.Context, objectPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.Remove(l.fullPath(objectPath)); err != nil {
		if os.IsNotExist(err) {
			// S3 Delete is idempotent, so we don't return an error
			return nil
		}
		return ferrors.NewStorageError(ferrors.CodeWriteFailed, objectPath, fmt.Errorf("%w: %v", ErrDeleteFailed, err))
	}
	return nil
}

// Exists checks if an object exists in local storage.
func (l *LocalStorage) Exists(ctx context.Context, objectPath string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(l.fullPath(objectPath))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, ferrors.NewStorageError(ferrors.CodeReadFailed, objectPath, err)
	}
	return true, nil
}

// ListObjects returns all object paths under the given prefix, sorted, using
// forward slashes.
func (l *LocalStorage) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	searchDir := l.fullPath(prefix)
	var objects []string

	err := filepath.Walk(searchDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil // prefix doesn't exist, return empty list
			}
			return err
		}
		if !info.IsDir() {
			rel, err := filepath.Rel(l.basePath, path)
			if err != nil {
				return err
			}
			objects = append(objects, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, ferrors.NewStorageError(ferrors.CodeReadFailed, "failed to list objects", err)
	}

	sort.Strings(objects)
	return objects, nil
}

func (l *LocalStorage) read(objectPath string) ([]byte, string, error) {
	data, err := os.ReadFile(l.fullPath(objectPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ferrors.NewStorageError(ferrors.CodeObjectNotFound, objectPath, ErrObjectNotFound)
		}
		return nil, "", ferrors.NewStorageError(ferrors.CodeReadFailed, objectPath, fmt.Errorf("%w: %v", ErrDownloadFailed, err))
	}
	return data, etagOf(data), nil
}

// write replaces the object atomically through a temp file and rename.
func (l *LocalStorage) write(objectPath string, data []byte) (string, error) {
	destPath := l.fullPath(objectPath)
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return "", ferrors.NewStorageError(ferrors.CodeWriteFailed, objectPath, fmt.Errorf("%w: %v", ErrUploadFailed, err))
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".upload-*")
	if err != nil {
		return "", ferrors.NewStorageError(ferrors.CodeWriteFailed, objectPath, fmt.Errorf("%w: %v", ErrUploadFailed, err))
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", ferrors.NewStorageError(ferrors.CodeWriteFailed, objectPath, fmt.Errorf("%w: %v", ErrUploadFailed, err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", ferrors.NewStorageError(ferrors.CodeWriteFailed, objectPath, fmt.Errorf("%w: %v", ErrUploadFailed, err))
	}
	if err := os.Rename(tmpName, destPath); err != nil {
		os.Remove(tmpName)
		return "", ferrors.NewStorageError(ferrors.CodeWriteFailed, objectPath, fmt.Errorf("%w: %v", ErrUploadFailed, err))
	}
	return etagOf(data), nil
}

// fullPath returns the full filesystem path for an object.
func (l *LocalStorage) fullPath(objectPath string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(objectPath))
}

func etagOf(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
