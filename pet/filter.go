// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pet

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/petcluster/interval"
)

// maxInvalidLogged bounds the number of inter-chromosomal or misordered PETs
// printed as a sample.
const maxInvalidLogged = 5

// FilterStats counts the PETs dropped by Filter, per reason.  Each PET is
// counted under the first reason that applies, in field order.
type FilterStats struct {
	Input int
	// Invalid PETs have anchors on different chromosomes or an anchor whose
	// start exceeds its end.
	Invalid      int
	SelfLigation int
	LowCount     int
	OffPeak      int
	Kept         int
}

// Filter drops PETs that should not take part in clustering, and extends both
// anchors of the remaining ones by opts.Extension on each side.  Starts are
// clamped at zero.  The input slice is not modified.
func Filter(records []Record, opts *Opts) ([]Record, FilterStats) {
	log.Printf("Preprocessing (Extension: %dbp, Self-ligation genomic span: %dbp, PET cutoff: %d) ...",
		opts.Extension, opts.SelfLigation, opts.PETCutoff)
	stats := FilterStats{Input: len(records)}
	kept := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.Chrom1 != rec.Chrom2 || rec.Start1 > rec.End1 || rec.Start2 > rec.End2 {
			stats.Invalid++
			if stats.Invalid <= maxInvalidLogged {
				log.Printf("Inter-chromosomal or misordered PET ignored: %v", rec)
			}
			continue
		}
		if rec.Start2-rec.End1 < opts.SelfLigation {
			stats.SelfLigation++
			continue
		}
		if rec.Count < opts.PETCutoff {
			stats.LowCount++
			continue
		}
		if opts.Peaks != nil && !anchorsOnPeaks(opts.Peaks, &rec) {
			stats.OffPeak++
			continue
		}
		rec.Start1 = clampedSub(rec.Start1, opts.Extension)
		rec.End1 += opts.Extension
		rec.Start2 = clampedSub(rec.Start2, opts.Extension)
		rec.End2 += opts.Extension
		kept = append(kept, rec)
	}
	stats.Kept = len(kept)
	if stats.Invalid > 0 {
		log.Printf("%d inter-chromosomal or misordered PETs are ignored.", stats.Invalid)
	}
	log.Printf("Done. Kept %d of %d PETs (self-ligation: %d, below PET cutoff: %d, off-peak: %d dropped).",
		stats.Kept, stats.Input, stats.SelfLigation, stats.LowCount, stats.OffPeak)
	return kept, stats
}

func anchorsOnPeaks(peaks *interval.BEDUnion, rec *Record) bool {
	return peaks.IntersectsByName(rec.Chrom1, interval.PosType(rec.Start1), interval.PosType(rec.End1)) &&
		peaks.IntersectsByName(rec.Chrom2, interval.PosType(rec.Start2), interval.PosType(rec.End2))
}

func clampedSub(pos, ext int64) int64 {
	if pos < ext {
		return 0
	}
	return pos - ext
}
