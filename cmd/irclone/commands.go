package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/bft-labs/irclone/internal/adapters/fs"
	"github.com/bft-labs/irclone/internal/bundle"
	"github.com/bft-labs/irclone/internal/domain"
	"github.com/bft-labs/irclone/pkg/irclone"
	"github.com/bft-labs/irclone/pkg/log"
)

func (c *cli) captureCmd() *cobra.Command {
	var (
		slot       int
		replayPath string
	)
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture one code into a slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := c.open(replayPath)
			if err != nil {
				return err
			}
			if err := w.Start(cmd.Context()); err != nil {
				return fmt.Errorf("start irclone: %w", err)
			}
			defer w.Stop()

			if err := w.Select(slot); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "waiting for a signal into slot %d...\n", slot)
			ev, err := w.Capture(cmd.Context())
			if err != nil {
				return err
			}
			saved := "saved"
			if !ev.Saved {
				saved = "not saved, memory only"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "slot %d: %d pulses from %d samples (%s)\n",
				ev.Slot, ev.Pulses, ev.RawSamples, saved)
			return nil
		},
	}
	cmd.Flags().IntVar(&slot, "slot", 0, "slot to program")
	cmd.Flags().StringVar(&replayPath, "replay", "", "file of recorded captures fed to the receiver")
	return cmd
}

func (c *cli) transmitCmd() *cobra.Command {
	var slot int
	cmd := &cobra.Command{
		Use:   "transmit",
		Short: "Send the code stored in a slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := c.open("")
			if err != nil {
				return err
			}
			if err := w.Start(cmd.Context()); err != nil {
				return fmt.Errorf("start irclone: %w", err)
			}
			defer w.Stop()

			if err := w.Select(slot); err != nil {
				return err
			}
			err = w.Transmit(cmd.Context())
			if errors.Is(err, domain.ErrEmptySlot) {
				return fmt.Errorf("slot %d has no code; capture one first", slot)
			}
			return err
		},
	}
	cmd.Flags().IntVar(&slot, "slot", 0, "slot to send")
	return cmd
}

// slotSummary is the listing form of one slot.
type slotSummary struct {
	Slot     int      `json:"slot"`
	Pulses   int      `json:"pulses"`
	Duration string   `json:"duration"`
	Samples  []uint16 `json:"samples,omitempty"`
}

func (c *cli) slotsCmd() *cobra.Command {
	var (
		asJSON  bool
		verbose bool
		watch   bool
	)
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "List stored codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := fs.NewSlotFileRepository(c.cfg.StoreDir)
			list := func() error {
				trains, err := repo.LoadAll(cmd.Context(), c.cfg.MaxCodes)
				if err != nil {
					c.log.Warn().Err(err).Msg("some records could not be read")
				}
				return c.printSlots(cmd, trains, asJSON, verbose)
			}
			if err := list(); err != nil {
				return err
			}
			if !watch {
				return nil
			}

			logger := log.NewZerologAdapterWithLogger(c.log)
			changes := make(chan domain.Slot, 1)
			watcher := fs.NewWatcher(c.cfg.StoreDir, c.cfg.MaxCodes, fs.DefaultDebounceDelay, logger, func(domain.Slot) {
				select {
				case changes <- 0:
				default:
				}
			})
			errCh := make(chan error, 1)
			go func() { errCh <- watcher.Run(cmd.Context()) }()
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case err := <-errCh:
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				case <-changes:
					if err := list(); err != nil {
						return err
					}
				}
			}
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "include every duration")
	cmd.Flags().BoolVar(&watch, "watch", false, "print again whenever a record changes")
	return cmd
}

func (c *cli) printSlots(cmd *cobra.Command, trains map[domain.Slot]domain.PulseTrain, asJSON, verbose bool) error {
	out := cmd.OutOrStdout()
	list := make([]slotSummary, 0, len(trains))
	for slot, train := range trains {
		s := slotSummary{Slot: int(slot), Pulses: train.Len(), Duration: train.Duration().String()}
		if verbose {
			s.Samples = train.Uint16s()
		}
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Slot < list[j].Slot })

	if asJSON {
		data, err := json.Marshal(list)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	byslot := make(map[int]slotSummary, len(list))
	for _, s := range list {
		byslot[s.Slot] = s
	}
	for i := 0; i < c.cfg.MaxCodes; i++ {
		s, ok := byslot[i]
		if !ok {
			fmt.Fprintf(out, "%d  empty\n", i)
			continue
		}
		fmt.Fprintf(out, "%d  %3d pulses  %s\n", i, s.Pulses, s.Duration)
		if verbose {
			fmt.Fprintf(out, "   %v\n", s.Samples)
		}
	}
	return nil
}

func (c *cli) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write every stored code into one bundle file (.yaml, .json, optionally .zst)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			repo := fs.NewSlotFileRepository(c.cfg.StoreDir)
			trains, err := repo.LoadAll(cmd.Context(), c.cfg.MaxCodes)
			if err != nil {
				c.log.Warn().Err(err).Msg("exporting without unreadable records")
			}
			b := bundle.New(trains, c.cfg.MaxCodes, time.Now())

			fh, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := bundle.Encode(fh, b, bundle.OptionsFromPath(path)); err != nil {
				fh.Close()
				return fmt.Errorf("export: %w", err)
			}
			if err := fh.Close(); err != nil {
				return err
			}
			c.log.Info().Int("slots", len(b.Slots)).Str("file", path).Msg("exported")
			return nil
		},
	}
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Store every code from a bundle file, replacing those slots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fh, err := os.Open(args[0])
			if err != nil {
				return err
			}
			b, err := bundle.Decode(fh)
			fh.Close()
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			if b.MaxCodes > c.cfg.MaxCodes {
				c.log.Warn().Int("bundle_max_codes", b.MaxCodes).Int("max_codes", c.cfg.MaxCodes).
					Msg("bundle was made with more slots")
			}
			trains, err := b.Trains(c.cfg.MaxCodes)
			if err != nil {
				return err
			}

			repo := fs.NewSlotFileRepository(c.cfg.StoreDir)
			if !repo.Probe() {
				return fmt.Errorf("%w: %s", irclone.ErrStorageUnwritable, c.cfg.StoreDir)
			}
			for slot, train := range trains {
				if err := repo.Save(cmd.Context(), slot, train); err != nil {
					return fmt.Errorf("slot %d: %w", slot, err)
				}
			}
			c.log.Info().Int("slots", len(trains)).Str("dir", c.cfg.StoreDir).Msg("imported")
			return nil
		},
	}
}
