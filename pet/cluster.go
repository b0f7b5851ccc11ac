// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pet

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"golang.org/x/exp/slices"
)

// OverlapFunc reports whether record j may be merged into record i.  The
// clustering sweep only calls it with j at or after i in merge order.
type OverlapFunc func(i, j *Record) bool

// endpointIn reports whether pos lies in the closed interval [start, end].
func endpointIn(start, end, pos int64) bool {
	return start <= pos && pos <= end
}

// ReferenceOverlap is the overlap test of the reference ChIA-PET clustering
// tool: on both anchors, one endpoint of j must lie within i.  It misses the
// case where an anchor of i is strictly nested in the matching anchor of j.
// For the first anchor the merge order rules that out; for the second it does
// not, so use SymmetricOverlap if nested second anchors must merge.
func ReferenceOverlap(i, j *Record) bool {
	return (endpointIn(i.Start1, i.End1, j.Start1) || endpointIn(i.Start1, i.End1, j.End1)) &&
		(endpointIn(i.Start2, i.End2, j.Start2) || endpointIn(i.Start2, i.End2, j.End2))
}

// SymmetricOverlap reports whether both anchors of i and j share at least
// one position (closed intervals).
func SymmetricOverlap(i, j *Record) bool {
	return j.Start1 <= i.End1 && i.Start1 <= j.End1 &&
		j.Start2 <= i.End2 && i.Start2 <= j.End2
}

// sortOrder recomputes p.order, the permutation of p.recs sorted by merge key.
// Ties keep input order.
func (p *Partition) sortOrder() {
	n := len(p.recs)
	if cap(p.order) < n {
		p.order = make([]int, n)
	}
	p.order = p.order[:n]
	for i := range p.order {
		p.order[i] = i
	}
	recs := p.recs
	slices.SortStableFunc(p.order, func(a, b int) int {
		return compareMergeKey(&recs[a], &recs[b])
	})
}

// sweep walks p.order once, merging every later record that overlaps the
// current one into it.  It returns the number of merges.  p.order must be
// current.
func (p *Partition) sweep(overlap OverlapFunc) (int, error) {
	var (
		recs    = p.recs
		order   = p.order
		n       = len(order)
		changes int
	)
	for ii := 0; ii < n; ii++ {
		ri := &recs[order[ii]]
		if !ri.Live() {
			continue
		}
		for jj := ii + 1; jj < n; jj++ {
			rj := &recs[order[jj]]
			// Records are sorted by Start1, so nothing further can overlap ri's
			// first anchor.  ri.End1 may have grown during this scan.
			if rj.Start1 > ri.End1 {
				break
			}
			if !rj.Live() || !overlap(ri, rj) {
				continue
			}
			if rj.Count > math.MaxUint64-ri.Count {
				return changes, errors.E(fmt.Sprintf("pet: count overflow merging %v into %v", *rj, *ri))
			}
			if rj.Start1 < ri.Start1 {
				ri.Start1 = rj.Start1
			}
			if rj.End1 > ri.End1 {
				ri.End1 = rj.End1
			}
			if rj.Start2 < ri.Start2 {
				ri.Start2 = rj.Start2
			}
			if rj.End2 > ri.End2 {
				ri.End2 = rj.End2
			}
			ri.Count += rj.Count
			rj.Count = 0
			changes++
		}
	}
	return changes, nil
}

// Round runs one sort-and-merge round over the partition and returns the
// number of merges made.  A round with no merge marks the partition
// converged; further rounds are harmless and also make no merge.
func (p *Partition) Round(overlap OverlapFunc) (int, error) {
	p.sortOrder()
	changes, err := p.sweep(overlap)
	p.nRounds++
	p.nLive -= changes
	if err != nil {
		return changes, err
	}
	if changes == 0 {
		p.state = converged
	} else {
		p.state = active
	}
	return changes, nil
}

// ClusterStats summarizes a Cluster call.
type ClusterStats struct {
	// Rounds is the number of global rounds, i.e. the largest number of rounds
	// any partition needed.
	Rounds int
	// Merges is the total number of merges.
	Merges int
	// Live is the number of records left after clustering.
	Live int
}

// Cluster merges overlapping PETs within each partition until no partition
// changes.  Rounds are synchronized across partitions: round r+1 starts
// after every active partition finished round r, but a partition that
// converged is not swept again.  Within a round, partitions are distributed
// over opts.Parallelism goroutines, largest first.
//
// Cluster returns an error if a count overflows, ctx is canceled, or
// opts.MaxRounds > 0 rounds were run without convergence.
func Cluster(ctx context.Context, parts []*Partition, opts *Opts) (ClusterStats, error) {
	var stats ClusterStats
	if err := validate(opts); err != nil {
		return stats, err
	}
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	overlap := opts.overlapFunc()
	for {
		var pending []*Partition
		nLive := 0
		for _, p := range parts {
			if !p.Converged() {
				pending = append(pending, p)
			}
			nLive += p.NLive()
		}
		stats.Live = nLive
		if len(pending) == 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if opts.MaxRounds > 0 && stats.Rounds >= opts.MaxRounds {
			return stats, errors.E(fmt.Sprintf("pet: clustering did not converge within %d rounds (%d partitions still changing)",
				opts.MaxRounds, len(pending)))
		}
		log.Printf("Clustering (step: #%d, partitions: %d, PETs: %d) ...", stats.Rounds+1, len(pending), nLive)
		changes, err := runRound(pending, parallelism, overlap)
		if err != nil {
			return stats, err
		}
		stats.Rounds++
		stats.Merges += changes
		log.Printf("Done. Changes: %d", changes)
	}
	log.Printf("Clustering converged after %d rounds, %d merges, %d clusters.", stats.Rounds, stats.Merges, stats.Live)
	return stats, nil
}

// runRound runs one round on each of pending and returns the total number of
// merges.  Each partition is handled by exactly one goroutine; per-partition
// change counts are summed after all goroutines finish.
func runRound(pending []*Partition, parallelism int, overlap OverlapFunc) (int, error) {
	// Largest partitions first keeps one big chromosome from finishing last.
	slices.SortStableFunc(pending, func(a, b *Partition) int {
		return b.NLive() - a.NLive()
	})
	nJob := parallelism
	if nJob > len(pending) {
		nJob = len(pending)
	}
	changes := make([]int, len(pending))
	var next int64 = -1
	err := traverse.Each(nJob, func(jobIdx int) error {
		for {
			idx := int(atomic.AddInt64(&next, 1))
			if idx >= len(pending) {
				return nil
			}
			p := pending[idx]
			c, err := p.Round(overlap)
			if err != nil {
				return errors.E(err, "chromosome", p.Chrom)
			}
			changes[idx] = c
			log.Debug.Printf("job %d: %s round %d: %d merges, %d live", jobIdx, p.Chrom, p.Rounds(), c, p.NLive())
		}
	})
	if err != nil {
		return 0, err
	}
	total := 0
	for _, c := range changes {
		total += c
	}
	return total, nil
}

// Collect returns the live records of parts whose count is at least
// clusterCutoff, partition by partition, each in its last sort order.
func Collect(parts []*Partition, clusterCutoff uint64) []Record {
	var clusters []Record
	for _, p := range parts {
		p.eachLive(func(r *Record) {
			if r.Count >= clusterCutoff {
				clusters = append(clusters, *r)
			}
		})
	}
	return clusters
}
