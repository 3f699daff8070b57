package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rtsforge/sagecore/internal/persist"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <slot>",
	Short: "Print snapshot metadata for a slot",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	slot := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("persistence.mode is off, nothing to inspect")
	}
	if closeStore != nil {
		defer closeStore()
	}

	snap, err := store.Load(ctx, slot)
	if err != nil {
		return fmt.Errorf("load slot %s: %w", slot, err)
	}

	fmt.Printf("slot:     %s\n", slot)
	fmt.Printf("session:  %s\n", snap.Session)
	fmt.Printf("frame:    %d\n", snap.Frame)
	fmt.Printf("checksum: %016x\n", snap.Checksum)
	fmt.Printf("size:     %d bytes\n", len(snap.Data))
	fmt.Printf("digest:   %x\n", persist.Digest(snap.Data))
	return nil
}
