// Package bundle moves every stored slot record in and out of a single
// portable file, as YAML or JSON and optionally zstd-compressed.
package bundle

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/bft-labs/irclone/internal/domain"
)

// Version is the bundle layout version written by Encode.
const Version = 1

// Format is the text encoding of a bundle.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var (
	enc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	dec, _ = zstd.NewReader(nil)
)

// ErrInvalidBundle reports a bundle that decoded but cannot be imported.
var ErrInvalidBundle = errors.New("irclone: invalid bundle")

// Record is one slot's pulse train.
type Record struct {
	Slot   int      `yaml:"slot" json:"slot"`
	Pulses []uint16 `yaml:"pulses,flow" json:"pulses"`
}

// Bundle is the exported form of a slot store.
type Bundle struct {
	Version  int       `yaml:"version" json:"version"`
	Created  time.Time `yaml:"created" json:"created"`
	MaxCodes int       `yaml:"max_codes" json:"max_codes"`
	Slots    []Record  `yaml:"slots" json:"slots"`
}

// New builds a bundle from trains, ordered by slot. Empty trains are left out.
func New(trains map[domain.Slot]domain.PulseTrain, maxCodes int, created time.Time) Bundle {
	b := Bundle{Version: Version, Created: created.UTC(), MaxCodes: maxCodes}
	for slot, train := range trains {
		if train.Empty() {
			continue
		}
		b.Slots = append(b.Slots, Record{Slot: int(slot), Pulses: train.Uint16s()})
	}
	sort.Slice(b.Slots, func(i, j int) bool { return b.Slots[i].Slot < b.Slots[j].Slot })
	return b
}

// Trains checks the bundle against maxCodes and returns its records by slot.
func (b Bundle) Trains(maxCodes int) (map[domain.Slot]domain.PulseTrain, error) {
	if b.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidBundle, b.Version)
	}
	out := make(map[domain.Slot]domain.PulseTrain, len(b.Slots))
	for _, r := range b.Slots {
		slot := domain.Slot(r.Slot)
		if err := domain.CheckSlot(slot, maxCodes); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
		}
		if len(r.Pulses) == 0 {
			return nil, fmt.Errorf("%w: slot %d has no pulses", ErrInvalidBundle, r.Slot)
		}
		if _, dup := out[slot]; dup {
			return nil, fmt.Errorf("%w: slot %d appears twice", ErrInvalidBundle, r.Slot)
		}
		out[slot] = domain.TrainFromUint16s(r.Pulses)
	}
	return out, nil
}

// Options controls how Encode writes a bundle.
type Options struct {
	Format   Format
	Compress bool
}

// OptionsFromPath picks the format from the file extension: .json for JSON,
// anything else YAML, and a trailing .zst for compression.
func OptionsFromPath(path string) Options {
	var o Options
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".zst" {
		o.Compress = true
		ext = strings.ToLower(filepath.Ext(strings.TrimSuffix(path, filepath.Ext(path))))
	}
	o.Format = FormatYAML
	if ext == ".json" {
		o.Format = FormatJSON
	}
	return o
}

// Encode writes b to w.
func Encode(w io.Writer, b Bundle, o Options) error {
	var (
		data []byte
		err  error
	)
	switch o.Format {
	case FormatJSON:
		data, err = json.MarshalIndent(b, "", "  ")
		data = append(data, '\n')
	case FormatYAML, "":
		data, err = yaml.Marshal(b)
	default:
		return fmt.Errorf("unknown bundle format %q", o.Format)
	}
	if err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	if o.Compress {
		data = enc.EncodeAll(data, nil)
	}
	_, err = w.Write(data)
	return err
}

// Decode reads a bundle written by Encode in any format, detecting
// compression and encoding from the content.
func Decode(r io.Reader) (Bundle, error) {
	var b Bundle
	data, err := io.ReadAll(r)
	if err != nil {
		return b, err
	}
	if bytes.HasPrefix(data, zstdMagic) {
		if data, err = dec.DecodeAll(data, nil); err != nil {
			return b, fmt.Errorf("decompress bundle: %w", err)
		}
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return b, fmt.Errorf("%w: empty", ErrInvalidBundle)
	}
	if trimmed[0] == '{' {
		err = json.Unmarshal(trimmed, &b)
	} else {
		err = yaml.Unmarshal(trimmed, &b)
	}
	if err != nil {
		return b, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	return b, nil
}
