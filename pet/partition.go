// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pet

import (
	"strings"

	"github.com/biogo/store/llrb"
)

type partitionState int

const (
	// active partitions made at least one merge in their last round (or have
	// not run a round yet).
	active partitionState = iota
	// converged partitions made no merge in their last round.
	converged
)

// Partition holds the PETs of one chromosome.  A partition is owned by a
// single goroutine while it is being clustered.
type Partition struct {
	// Chrom is the chromosome shared by all records.
	Chrom string

	recs []Record
	// order is the permutation of recs computed by the last sort; reused
	// across rounds.
	order   []int
	state   partitionState
	nRounds int
	nLive   int
}

// NewPartition creates a partition over recs, which must all lie on chrom.
// The partition takes ownership of recs.
func NewPartition(chrom string, recs []Record) *Partition {
	p := &Partition{Chrom: chrom, recs: recs}
	for i := range recs {
		if recs[i].Live() {
			p.nLive++
		}
	}
	return p
}

// Len returns the number of records, tombstones included.
func (p *Partition) Len() int { return len(p.recs) }

// NLive returns the number of records not merged into another one.
func (p *Partition) NLive() int { return p.nLive }

// Rounds returns the number of rounds run so far.
func (p *Partition) Rounds() int { return p.nRounds }

// Converged reports whether the last round made no merge.
func (p *Partition) Converged() bool { return p.state == converged }

// TotalCount returns the sum of the counts of all records.
func (p *Partition) TotalCount() uint64 {
	var n uint64
	for i := range p.recs {
		n += p.recs[i].Count
	}
	return n
}

// Clusters returns copies of the live records, in the order established by
// the last sort (input order if no round ran yet).
func (p *Partition) Clusters() []Record {
	out := make([]Record, 0, p.nLive)
	p.eachLive(func(r *Record) { out = append(out, *r) })
	return out
}

func (p *Partition) eachLive(fn func(r *Record)) {
	if len(p.order) != len(p.recs) {
		for i := range p.recs {
			if p.recs[i].Live() {
				fn(&p.recs[i])
			}
		}
		return
	}
	for _, idx := range p.order {
		if p.recs[idx].Live() {
			fn(&p.recs[idx])
		}
	}
}

// chromKey orders partitions by chromosome name in an llrb.Tree.
type chromKey struct {
	chrom string
	recs  *[]Record
}

// Compare implements llrb.Comparable.
func (k chromKey) Compare(c2 llrb.Comparable) int {
	return strings.Compare(k.chrom, c2.(chromKey).chrom)
}

// NewPartitions splits records by chromosome.  Records must have passed
// Filter, so that Chrom1 == Chrom2.  Partitions are returned in chromosome
// name order; the records of a partition keep their input order.
func NewPartitions(records []Record) []*Partition {
	var tree llrb.Tree
	// Inputs are usually grouped by chromosome, so remember the last lookup.
	lastChrom := ""
	var recs *[]Record
	for _, rec := range records {
		if recs == nil || rec.Chrom1 != lastChrom {
			if found := tree.Get(chromKey{chrom: rec.Chrom1}); found != nil {
				recs = found.(chromKey).recs
			} else {
				recs = &[]Record{}
				tree.Insert(chromKey{chrom: rec.Chrom1, recs: recs})
			}
			lastChrom = rec.Chrom1
		}
		*recs = append(*recs, rec)
	}
	parts := make([]*Partition, 0, tree.Len())
	tree.Do(func(c llrb.Comparable) (done bool) {
		k := c.(chromKey)
		parts = append(parts, NewPartition(k.chrom, *k.recs))
		return
	})
	return parts
}
