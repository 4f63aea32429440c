package cache

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/restfetch/restfetch/types"
	"github.com/restfetch/restfetch/utils"
)

const fileExt = ".json"

// envelope is the persisted document: exactly two top-level fields, the
// epoch-seconds timestamp and the payload verbatim.
type envelope struct {
	TS   int64          `json:"ts"`
	Data []types.Record `json:"data"`
}

// FileStore keeps one JSON file per key inside a cache directory. Files
// are overwritten wholesale on each write.
type FileStore struct {
	logger types.Logger
	dir    string
}

var _ types.PersistentStore = (*FileStore)(nil)

func NewFileStore(logger types.Logger, dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, types.Errorf(types.ErrCacheIO, "failed to create cache dir %s: %v", dir, err)
	}

	logger.Debug("file cache store initialized", zap.String("dir", dir))

	return &FileStore{
		logger: logger,
		dir:    dir,
	}, nil
}

// Location maps a key to a filesystem-safe path: path separators become
// underscores, leading/trailing underscores are trimmed.
func (f *FileStore) Location(key string) string {
	safe := strings.Trim(strings.ReplaceAll(key, "/", "_"), "_")
	return filepath.Join(f.dir, safe+fileExt)
}

func (f *FileStore) Write(key string, entry *types.CacheEntry) error {
	path := f.Location(key)

	data, err := utils.Marshal(&envelope{TS: entry.Timestamp, Data: entry.Payload})
	if err != nil {
		return types.Errorf(types.ErrCacheIO, "failed to encode entry for %s: %v", key, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		f.logger.Error("failed to write cache file",
			zap.String("path", path),
			zap.Error(err))
		return types.Errorf(types.ErrCacheIO, "failed to write cache file %s: %v", path, err)
	}

	f.logger.Debug("saved cache file", zap.String("path", path))
	return nil
}

func (f *FileStore) Read(key string) (*types.CacheEntry, bool, error) {
	path := f.Location(key)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, types.Errorf(types.ErrCacheIO, "failed to read cache file %s: %v", path, err)
	}

	var env envelope
	if err := utils.Unmarshal(data, &env); err != nil {
		// Corrupt files are an I/O fault, never a silent miss.
		f.logger.Error("failed to parse cache file",
			zap.String("path", path),
			zap.Error(err))
		return nil, false, types.Errorf(types.ErrCacheIO, "failed to parse cache file %s: %v", path, err)
	}

	if env.Data == nil {
		f.logger.Warn("cache file contained no payload", zap.String("path", path))
		return nil, false, nil
	}

	return &types.CacheEntry{
		Key:       key,
		Timestamp: env.TS,
		Payload:   env.Data,
	}, true, nil
}

func (f *FileStore) Delete(key string) error {
	err := os.Remove(f.Location(key))
	if err != nil && !os.IsNotExist(err) {
		return types.Errorf(types.ErrCacheIO, "failed to remove cache file for %s: %v", key, err)
	}
	return nil
}

func (f *FileStore) DeleteAll() error {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return types.Errorf(types.ErrCacheIO, "failed to list cache dir %s: %v", f.dir, err)
	}

	for _, dirEntry := range entries {
		if dirEntry.IsDir() || !strings.HasSuffix(dirEntry.Name(), fileExt) {
			continue
		}
		path := filepath.Join(f.dir, dirEntry.Name())
		if err := os.Remove(path); err != nil {
			return types.Errorf(types.ErrCacheIO, "failed to remove %s: %v", path, err)
		}
	}

	return nil
}

func (f *FileStore) Count() (int, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return 0, types.Errorf(types.ErrCacheIO, "failed to list cache dir %s: %v", f.dir, err)
	}

	count := 0
	for _, dirEntry := range entries {
		if !dirEntry.IsDir() && strings.HasSuffix(dirEntry.Name(), fileExt) {
			count++
		}
	}

	return count, nil
}

func (f *FileStore) Close() error {
	return nil
}
