package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/csvlab/internal/schema"
	"github.com/vvka-141/csvlab/pkg/csvlab"
)

// CopyPlan names the source and target modules of a copy.
type CopyPlan struct {
	Main       *schema.Module
	Lab        *schema.Module
	Experiment *schema.Module

	// SkipDuplicateSessions skips sessions already present in the experiment
	// schema. Users and subjects always skip duplicates.
	SkipDuplicateSessions bool
}

// Copier copies users and subjects into the lab schema and sessions into
// the experiment schema.
type Copier struct {
	logger csvlab.Logger
}

// NewCopier creates a Copier. Panics if logger is nil.
func NewCopier(logger csvlab.Logger) *Copier {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Copier{logger: logger}
}

type copyStep struct {
	table  string
	source *schema.Module
	target *schema.Module
	opts   csvlab.InsertOptions
	count  *int64
}

// Copy runs all three copies in one transaction, users and subjects first
// since the experiment sessions reference them. Attributes the target does
// not have, such as experiment_file, are dropped from the session copy.
// Any failure rolls everything back and wraps csvlab.ErrCopyFailed.
func (c *Copier) Copy(ctx context.Context, q csvlab.Querier, plan CopyPlan) (csvlab.CopyResult, error) {
	var result csvlab.CopyResult
	steps := []copyStep{
		{schema.TableUser, plan.Main, plan.Lab, csvlab.InsertOptions{SkipDuplicates: true}, &result.Users},
		{schema.TableSubject, plan.Main, plan.Lab, csvlab.InsertOptions{SkipDuplicates: true}, &result.Subjects},
		{schema.TableSession, plan.Main, plan.Experiment, csvlab.InsertOptions{
			IgnoreExtraFields: true,
			SkipDuplicates:    plan.SkipDuplicateSessions,
		}, &result.Sessions},
	}

	err := pgx.BeginFunc(ctx, q, func(tx pgx.Tx) error {
		for _, step := range steps {
			src, err := step.source.Table(step.table)
			if err != nil {
				return err
			}
			dst, err := step.target.Table(step.table)
			if err != nil {
				return err
			}
			n, err := schema.InsertFrom(ctx, tx, dst, src, step.opts)
			if err != nil {
				return err
			}
			*step.count = n
			c.logger.Verbose("Copied %d row(s) from %s to %s", n, src, dst)
		}
		return nil
	})
	if err != nil {
		return csvlab.CopyResult{}, fmt.Errorf("%w: %w", csvlab.ErrCopyFailed, err)
	}
	return result, nil
}
