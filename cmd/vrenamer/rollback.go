package main

import (
	"context"
	"fmt"

	"vrenamer/internal/auditstore"
	"vrenamer/internal/rename"
)

func runRollback(auditFile string) error {
	restored, err := rename.Rollback(auditFile)
	if err != nil {
		return fmt.Errorf("rollback from %s: %w", auditFile, err)
	}
	fmt.Printf("Restored %d file(s) from %s\n", restored, auditFile)
	return nil
}

// runListAuditMirror prints the most recently recorded rows from the
// optional Postgres mirror, newest first.
func runListAuditMirror(ctx context.Context, postgresURL string, limit int) error {
	store, err := auditstore.Open(ctx, postgresURL)
	if err != nil {
		return fmt.Errorf("open audit mirror: %w", err)
	}
	defer store.Close()

	rows, err := store.ListRecent(ctx, limit)
	if err != nil {
		return fmt.Errorf("list audit mirror: %w", err)
	}
	for _, r := range rows {
		fmt.Printf("%s  %s -> %s  dry_run=%v  %s\n", r.ID, r.Source, r.Target, r.DryRun, r.CreatedAt)
	}
	return nil
}

// runDropAuditSchema drops the renames table in the optional Postgres
// mirror, matching the teacher's handleDropSchema maintenance path.
func runDropAuditSchema(ctx context.Context, postgresURL string) error {
	store, err := auditstore.Open(ctx, postgresURL)
	if err != nil {
		return fmt.Errorf("open audit mirror: %w", err)
	}
	defer store.Close()

	if err := store.DropSchema(ctx); err != nil {
		return fmt.Errorf("drop audit mirror schema: %w", err)
	}
	fmt.Println("Dropped renames table from audit mirror")
	return nil
}
