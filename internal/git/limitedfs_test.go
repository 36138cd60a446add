package git

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitedFs_MaxFiles(t *testing.T) {
	t.Parallel()

	fs := &LimitedFs{Filesystem: memfs.New(), MaxFiles: 2}

	for _, name := range []string{"a", "b"} {
		f, err := fs.Create(name)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	_, err := fs.Create("c")
	assert.ErrorIs(t, err, ErrTooManyFiles)

	_, err = fs.TempFile("", "pack")
	assert.ErrorIs(t, err, ErrTooManyFiles)

	// Reading existing files is not limited
	f, err := fs.Open("a")
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestLimitedFs_TotalFileSize(t *testing.T) {
	t.Parallel()

	fs := &LimitedFs{Filesystem: memfs.New(), TotalFileSize: 10}

	require.NoError(t, util.WriteFile(fs, "first", []byte("123456"), 0o644))
	assert.Equal(t, int64(6), fs.Written())

	err := util.WriteFile(fs, "second", []byte("123456"), 0o644)
	assert.ErrorIs(t, err, ErrRepositoryTooLarge)
	assert.Equal(t, int64(6), fs.Written())
}

func TestLimitedFs_ChrootKeepsLimits(t *testing.T) {
	t.Parallel()

	fs := &LimitedFs{Filesystem: memfs.New(), MaxFiles: 1}

	sub, err := fs.Chroot("objects")
	require.NoError(t, err)

	f, err := sub.Create("pack-1")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = sub.Create("pack-2")
	assert.ErrorIs(t, err, ErrTooManyFiles)

	_, err = fs.Stat("objects/pack-1")
	require.NoError(t, err)
}

func TestNewLimitedFs_Defaults(t *testing.T) {
	t.Parallel()

	fs := NewLimitedFs(memfs.New())
	assert.Equal(t, int64(DefaultMaxFiles), fs.MaxFiles)
	assert.Equal(t, int64(DefaultMaxTotalSize), fs.TotalFileSize)
}
