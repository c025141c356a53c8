package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/csvlab/internal/schema"
	"github.com/vvka-141/csvlab/pkg/csvlab"
)

// SyncFileList inserts the discovered files into the file_list lookup table,
// skipping paths that are already listed. Existing rows keep the checksum
// they were listed with, so a changed file shows up as stale in status.
// It returns the number of new rows.
func SyncFileList(ctx context.Context, q csvlab.Querier, fileList *schema.TableInfo, files []csvlab.FileRef) (int64, error) {
	var inserted int64
	err := pgx.BeginFunc(ctx, q, func(tx pgx.Tx) error {
		for _, f := range files {
			n, err := schema.Insert1(ctx, tx, fileList, map[string]any{
				schema.ColExperimentFile: f.Path,
				schema.ColChecksum:       f.Checksum,
				schema.ColSizeBytes:      f.SizeBytes,
			}, csvlab.InsertOptions{SkipDuplicates: true})
			if err != nil {
				return err
			}
			inserted += n
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to sync %s: %w", fileList, err)
	}
	return inserted, nil
}
