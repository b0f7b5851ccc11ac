// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pet

import (
	"context"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/petcluster/interval"
)

// Run reads PETs from inputPaths, clusters them, and writes the clusters whose
// count reaches opts.ClusterCutoff to outputPath.
func Run(ctx context.Context, inputPaths []string, outputPath string, opts *Opts) (Summary, error) {
	if err := validate(opts); err != nil {
		return Summary{}, err
	}
	if len(inputPaths) == 0 {
		return Summary{}, errors.E(errors.Invalid, "no input PET files")
	}
	if opts.Peaks == nil && opts.PeaksPath != "" {
		peaks, err := interval.NewBEDUnionFromPath(opts.PeaksPath, interval.NewBEDOpts{})
		if err != nil {
			return Summary{}, errors.E(err, "load peaks", opts.PeaksPath)
		}
		opts.Peaks = &peaks
	}
	records, _, err := ReadRecords(ctx, inputPaths, opts.MaxRecords)
	if err != nil {
		return Summary{}, err
	}
	records, _ = Filter(records, opts)
	parts := NewPartitions(records)
	log.Printf("%d PETs on %d chromosomes.", len(records), len(parts))
	if _, err = Cluster(ctx, parts, opts); err != nil {
		return Summary{}, err
	}
	log.Printf("Saving to %s (cluster cutoff: %d) ...", outputPath, opts.ClusterCutoff)
	clusters := Collect(parts, opts.ClusterCutoff)
	if err = WriteClusters(ctx, outputPath, clusters); err != nil {
		return Summary{}, err
	}
	summary := Summarize(clusters)
	log.Printf("Done. Saved %d clusters (total count %d, mean %.2f, median %.1f, max %d).",
		summary.NClusters, summary.TotalCount, summary.MeanCount, summary.MedianCount, summary.MaxCount)
	return summary, nil
}
