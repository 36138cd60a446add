package git

import (
	"errors"
	"os"
	"sync"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/helper/chroot"
)

const (
	// DefaultMaxFiles caps the number of files a clone may create
	DefaultMaxFiles = 10 * 1000

	// DefaultMaxTotalSize caps the bytes a clone may write, in bytes
	DefaultMaxTotalSize = 100 * 1024 * 1024
)

var (
	// ErrTooManyFiles is returned once a clone creates more than MaxFiles files
	ErrTooManyFiles = errors.New("repository exceeds the file count limit")

	// ErrRepositoryTooLarge is returned once a clone writes more than TotalFileSize bytes
	ErrRepositoryTooLarge = errors.New("repository exceeds the size limit")
)

// LimitedFs wraps a billy.Filesystem and enforces file count and size limits
type LimitedFs struct {
	billy.Filesystem

	MaxFiles      int64
	TotalFileSize int64

	mu      sync.Mutex
	files   int64
	written int64
}

// NewLimitedFs wraps fs with the default limits
func NewLimitedFs(fs billy.Filesystem) *LimitedFs {
	return &LimitedFs{
		Filesystem:    fs,
		MaxFiles:      DefaultMaxFiles,
		TotalFileSize: DefaultMaxTotalSize,
	}
}

// Create creates a new file, counting it against MaxFiles
func (l *LimitedFs) Create(filename string) (billy.File, error) {
	return l.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
}

// OpenFile opens a file. Opening with O_CREATE counts against MaxFiles.
func (l *LimitedFs) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	if flag&os.O_CREATE != 0 {
		if err := l.addFile(); err != nil {
			return nil, err
		}
	}
	f, err := l.Filesystem.OpenFile(filename, flag, perm)
	if err != nil {
		return nil, err
	}
	return &limitedFile{File: f, fs: l}, nil
}

// TempFile creates a temporary file, counting it against MaxFiles
func (l *LimitedFs) TempFile(dir, prefix string) (billy.File, error) {
	if err := l.addFile(); err != nil {
		return nil, err
	}
	f, err := l.Filesystem.TempFile(dir, prefix)
	if err != nil {
		return nil, err
	}
	return &limitedFile{File: f, fs: l}, nil
}

// Chroot keeps the limits in force below path
func (l *LimitedFs) Chroot(path string) (billy.Filesystem, error) {
	return chroot.New(l, path), nil
}

// Written reports the bytes written so far
func (l *LimitedFs) Written() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.written
}

func (l *LimitedFs) addFile() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.MaxFiles > 0 && l.files >= l.MaxFiles {
		return ErrTooManyFiles
	}
	l.files++
	return nil
}

func (l *LimitedFs) addBytes(n int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.TotalFileSize > 0 && l.written+int64(n) > l.TotalFileSize {
		return ErrRepositoryTooLarge
	}
	l.written += int64(n)
	return nil
}

type limitedFile struct {
	billy.File
	fs *LimitedFs
}

func (f *limitedFile) Write(p []byte) (int, error) {
	if err := f.fs.addBytes(len(p)); err != nil {
		return 0, err
	}
	return f.File.Write(p)
}
