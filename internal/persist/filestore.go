package persist

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/hordecore/hordecore/internal/meta"
)

// FileStore is a meta.Storage backed by one JSON file mapping keys to sealed
// values. Each value is encrypted with chacha20poly1305 under a key derived
// from a passphrase, so hand-edited entries fail to open and read as missing.
type FileStore struct {
	mu   sync.Mutex
	path string
	aead cipher.AEAD
	log  *zap.Logger
}

// NewFileStore opens (without reading) the store at path.
func NewFileStore(path, passphrase string, log *zap.Logger) (*FileStore, error) {
	key := blake2b.Sum256([]byte(passphrase))
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, fmt.Errorf("file store cipher: %w", err)
	}
	return &FileStore{path: path, aead: aead, log: log}, nil
}

func (f *FileStore) readAll() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	entries := map[string]string{}
	if err := json.Unmarshal(raw, &entries); err != nil {
		f.log.Warn("save file unreadable, starting empty", zap.String("path", f.path), zap.Error(err))
		return map[string]string{}, nil
	}
	return entries, nil
}

func (f *FileStore) writeAll(entries map[string]string) error {
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create save dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}

func (f *FileStore) seal(key, value string) string {
	nonce := make([]byte, f.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		panic(fmt.Sprintf("crypto/rand: %v", err))
	}
	out := f.aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return base64.StdEncoding.EncodeToString(out)
}

func (f *FileStore) open(key, sealed string) (string, bool) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	n := f.aead.NonceSize()
	if err != nil || len(raw) < n {
		return "", false
	}
	plain, err := f.aead.Open(nil, raw[:n], raw[n:], []byte(key))
	if err != nil {
		return "", false
	}
	return string(plain), true
}

// Get returns meta.ErrNotFound for a missing or tampered entry.
func (f *FileStore) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries, err := f.readAll()
	if err != nil {
		return "", err
	}
	sealed, ok := entries[key]
	if !ok {
		return "", meta.ErrNotFound
	}
	v, ok := f.open(key, sealed)
	if !ok {
		f.log.Warn("save entry failed authentication, ignoring", zap.String("key", key))
		return "", meta.ErrNotFound
	}
	return v, nil
}

func (f *FileStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries, err := f.readAll()
	if err != nil {
		return err
	}
	entries[key] = f.seal(key, value)
	return f.writeAll(entries)
}

func (f *FileStore) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries, err := f.readAll()
	if err != nil {
		return err
	}
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)
	return f.writeAll(entries)
}
