package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/irclone/internal/domain"
)

func writableRepo(t *testing.T) *SlotFileRepository {
	t.Helper()
	r := NewSlotFileRepository(t.TempDir())
	require.True(t, r.Probe(), "temp dir should be writable")
	return r
}

func TestSaveLoadAll_RoundTrip(t *testing.T) {
	ctx := context.Background()
	r := writableRepo(t)

	trains := map[domain.Slot]domain.PulseTrain{
		0: {9000, 4500, 560, 560, 560, 1690},
		2: {65535, 0, 1},
		4: {8500},
	}
	for slot, train := range trains {
		require.NoError(t, r.Save(ctx, slot, train))
	}

	loaded, err := r.LoadAll(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, trains, loaded)
}

func TestSave_RecordFormat(t *testing.T) {
	r := writableRepo(t)
	require.NoError(t, r.Save(context.Background(), 1, domain.PulseTrain{9000, 4500, 560}))

	data, err := os.ReadFile(filepath.Join(r.Dir(), "1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "9000\n4500\n560\n", string(data))

	_, err = os.Stat(filepath.Join(r.Dir(), "1.txt.tmp"))
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")
}

func TestSave_Overwrites(t *testing.T) {
	ctx := context.Background()
	r := writableRepo(t)

	require.NoError(t, r.Save(ctx, 3, domain.PulseTrain{1, 2, 3, 4, 5}))
	require.NoError(t, r.Save(ctx, 3, domain.PulseTrain{7}))

	train, ok, err := r.Load(ctx, 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.PulseTrain{7}, train)
}

func TestSave_FailedRenameRemovesTempFile(t *testing.T) {
	r := writableRepo(t)
	// A non-empty directory where the record belongs makes the rename fail.
	blocker := filepath.Join(r.Dir(), "2.txt")
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "keep"), 0o755))

	err := r.Save(context.Background(), 2, domain.PulseTrain{9000, 4500})
	require.Error(t, err)

	_, err = os.Stat(blocker + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be removed after a failed save")
}

func TestSave_SkippedWhenUnwritable(t *testing.T) {
	dir := t.TempDir()
	r := NewSlotFileRepository(dir)
	r.SetWritable(false)

	err := r.Save(context.Background(), 0, domain.PulseTrain{9000})
	assert.ErrorIs(t, err, domain.ErrStorageUnwritable)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing may be written when unwritable")
}

func TestNewRepository_StartsUnwritable(t *testing.T) {
	r := NewSlotFileRepository(t.TempDir())
	assert.False(t, r.Writable())
	assert.ErrorIs(t, r.Save(context.Background(), 0, domain.PulseTrain{1}), domain.ErrStorageUnwritable)
}

func TestProbe_ReadOnlyDirectory(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	r := NewSlotFileRepository(dir)
	assert.False(t, r.Probe())
	assert.False(t, r.Writable())
}

func TestProbe_LeavesNoScratchFile(t *testing.T) {
	r := writableRepo(t)
	entries, err := os.ReadDir(r.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadAll_MissingSlotsAreEmpty(t *testing.T) {
	r := NewSlotFileRepository(filepath.Join(t.TempDir(), "never-created"))

	loaded, err := r.LoadAll(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLoadAll_SkipsMalformedRecords(t *testing.T) {
	ctx := context.Background()
	r := writableRepo(t)

	require.NoError(t, r.Save(ctx, 0, domain.PulseTrain{9000, 4500}))
	require.NoError(t, os.WriteFile(r.Path(1), []byte("9000\nabc\n"), 0o644))
	require.NoError(t, os.WriteFile(r.Path(2), []byte("70000\n"), 0o644))
	require.NoError(t, os.WriteFile(r.Path(3), []byte(" 9000 \n\n4500\n"), 0o644))
	require.NoError(t, os.WriteFile(r.Path(4), []byte(""), 0o644))

	loaded, err := r.LoadAll(ctx, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMalformedRecord))
	assert.Contains(t, err.Error(), "slot 1")
	assert.Contains(t, err.Error(), "slot 2")

	assert.Equal(t, map[domain.Slot]domain.PulseTrain{
		0: {9000, 4500},
		3: {9000, 4500},
	}, loaded)
}

func TestLoadAll_IgnoresSlotsBeyondMaxCodes(t *testing.T) {
	ctx := context.Background()
	r := writableRepo(t)
	require.NoError(t, r.Save(ctx, 7, domain.PulseTrain{1}))

	loaded, err := r.LoadAll(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestSweep(t *testing.T) {
	r := writableRepo(t)
	dir := r.Dir()
	for _, name := range []string{"0.txt.tmp", probePrefix + "123", "1.txt", "notes.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("1\n"), 0o644))
	}

	removed, err := r.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"1.txt", "notes.md"}, names)
}

func TestSlotFromPath(t *testing.T) {
	tests := []struct {
		path string
		slot domain.Slot
		ok   bool
	}{
		{"/store/0.txt", 0, true},
		{"/store/12.txt", 12, true},
		{"/store/3.txt.tmp", 0, false},
		{"/store/-1.txt", 0, false},
		{"/store/text.txt", 0, false},
		{"/store/3.yaml", 0, false},
	}
	for _, tt := range tests {
		slot, ok := SlotFromPath(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		if tt.ok {
			assert.Equal(t, tt.slot, slot, tt.path)
		}
	}
}
