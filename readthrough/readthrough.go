// Package readthrough is an on-disk cache keyed by the sha256 of a string,
// used for downloaded artwork.
package readthrough

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

func New(dir, prefix string) *ReadThrough {
	return &ReadThrough{dir: dir, prefix: prefix}
}

type ReadThrough struct {
	dir, prefix string
}

var ErrMiss = errors.New("cache miss")

func (rt *ReadThrough) Get(key string) (io.ReadCloser, string, error) {
	hash, filename := rt.hashAndFilename(key)

	cache, err := os.Open(filename)
	if errors.Is(err, os.ErrNotExist) {
		return nil, hash, fmt.Errorf("cache miss for '%s': %w", hash, ErrMiss)
	} else if err != nil {
		return nil, hash, fmt.Errorf("error opening cache file '%s' for read: %w", hash, err)
	}

	return cache, hash, nil
}

// Set stores everything r yields under key, closes r, and returns a reader
// over the same bytes. Nothing is stored if r fails partway.
func (rt *ReadThrough) Set(key string, r io.ReadCloser) (io.ReadCloser, string, error) {
	defer r.Close()
	hash, filename := rt.hashAndFilename(key)

	if err := os.MkdirAll(rt.dir, 0o755); err != nil {
		return nil, hash, fmt.Errorf("error creating cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(rt.dir, rt.prefix+"*.tmp")
	if err != nil {
		return nil, hash, fmt.Errorf("error opening cache file '%s' for write: %w", hash, err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.TeeReader(r, tmp)); err != nil {
		return nil, hash, fmt.Errorf("error writing cache file '%s': %w", hash, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, hash, fmt.Errorf("error closing cache file '%s': %w", hash, err)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return nil, hash, fmt.Errorf("error moving cache file '%s' into place: %w", hash, err)
	}

	return io.NopCloser(&buf), hash, nil
}

// Bytes returns the cached bytes for key, calling fetch and caching its
// result on a miss.
func (rt *ReadThrough) Bytes(key string, fetch func() (io.ReadCloser, error)) ([]byte, error) {
	r, _, err := rt.Get(key)
	if errors.Is(err, ErrMiss) {
		body, err := fetch()
		if err != nil {
			return nil, err
		}
		if r, _, err = rt.Set(key, body); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	defer r.Close()

	bs, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading cached '%s': %w", key, err)
	}
	return bs, nil
}

func (rt *ReadThrough) hashAndFilename(key string) (string, string) {
	var hasher = sha256.New()
	hasher.Write([]byte(key))
	hash := hex.EncodeToString(hasher.Sum(nil))
	return hash, filepath.Join(rt.dir, rt.prefix+hash)
}
