package fs

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bft-labs/irclone/internal/domain"
)

const (
	recordExt   = ".txt"
	probePrefix = ".irclone-probe-"
)

// SlotFileRepository implements ports.SlotRepository with one text file per
// slot: <dir>/<slot>.txt holding one decimal duration per line.
type SlotFileRepository struct {
	dir      string
	writable bool
}

// NewSlotFileRepository creates a repository rooted at dir. Saves stay
// disabled until Probe reports the directory writable.
func NewSlotFileRepository(dir string) *SlotFileRepository {
	return &SlotFileRepository{dir: dir}
}

// Probe checks once whether dir accepts writes by creating and removing a
// scratch file, and records the result for Writable and Save.
func (r *SlotFileRepository) Probe() bool {
	r.writable = probeDir(r.dir)
	return r.writable
}

// SetWritable overrides the probe result.
func (r *SlotFileRepository) SetWritable(writable bool) {
	r.writable = writable
}

// Writable reports the recorded probe result.
func (r *SlotFileRepository) Writable() bool {
	return r.writable
}

// Dir returns the storage directory.
func (r *SlotFileRepository) Dir() string {
	return r.dir
}

// Path returns the record path for slot.
func (r *SlotFileRepository) Path(slot domain.Slot) string {
	return filepath.Join(r.dir, slot.String()+recordExt)
}

// Save overwrites the record for slot atomically.
// Uses atomic write (write to temp file, then rename) to prevent corruption.
func (r *SlotFileRepository) Save(ctx context.Context, slot domain.Slot, train domain.PulseTrain) error {
	if !r.writable {
		return domain.ErrStorageUnwritable
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if slot < 0 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidSlot, slot)
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return err
	}

	path := r.Path(slot)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, EncodeRecord(train), 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Load reads the record for one slot. ok is false when no record exists.
func (r *SlotFileRepository) Load(ctx context.Context, slot domain.Slot) (train domain.PulseTrain, ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(r.Path(slot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	train, err = DecodeRecord(data)
	if err != nil {
		return nil, false, fmt.Errorf("slot %d: %w", slot, err)
	}
	return train, true, nil
}

// LoadAll reads every slot in [0, maxCodes). Unreadable or malformed records
// are left out of the result and reported together in the returned error.
func (r *SlotFileRepository) LoadAll(ctx context.Context, maxCodes int) (map[domain.Slot]domain.PulseTrain, error) {
	out := make(map[domain.Slot]domain.PulseTrain)
	var errs []error
	for i := 0; i < maxCodes; i++ {
		slot := domain.Slot(i)
		train, ok, err := r.Load(ctx, slot)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return out, ctxErr
			}
			errs = append(errs, err)
			continue
		}
		// An empty record replays nothing, so it counts as unprogrammed.
		if ok && !train.Empty() {
			out[slot] = train
		}
	}
	return out, errors.Join(errs...)
}

// Sweep removes temp files left behind by interrupted saves or probes.
// It returns the number of files removed.
func (r *SlotFileRepository) Sweep() (int, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, recordExt+".tmp") || strings.HasPrefix(name, probePrefix)) {
			continue
		}
		if err := os.Remove(filepath.Join(r.dir, name)); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// SlotFromPath returns the slot a record path belongs to.
func SlotFromPath(path string) (domain.Slot, bool) {
	name := filepath.Base(path)
	if !strings.HasSuffix(name, recordExt) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(name, recordExt))
	if err != nil || n < 0 {
		return 0, false
	}
	return domain.Slot(n), true
}

// EncodeRecord renders train in the record format: one value per line.
func EncodeRecord(train domain.PulseTrain) []byte {
	var b bytes.Buffer
	for _, s := range train {
		b.WriteString(strconv.FormatUint(uint64(s), 10))
		b.WriteByte('\n')
	}
	return b.Bytes()
}

// DecodeRecord parses the record format. Surrounding whitespace and blank
// lines are ignored; anything else that is not a 16-bit unsigned integer is
// an error wrapping domain.ErrMalformedRecord.
func DecodeRecord(data []byte) (domain.PulseTrain, error) {
	train := domain.PulseTrain{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		v, err := strconv.ParseUint(text, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %q", domain.ErrMalformedRecord, line, text)
		}
		train = append(train, domain.PulseSample(v))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedRecord, err)
	}
	return train, nil
}

func probeDir(dir string) bool {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false
	}
	f, err := os.CreateTemp(dir, probePrefix+"*")
	if err != nil {
		return false
	}
	name := f.Name()
	_, werr := f.WriteString("writable")
	cerr := f.Close()
	rerr := os.Remove(name)
	return werr == nil && cerr == nil && rerr == nil
}
