// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pet

import (
	"github.com/grailbio/base/errors"
	"github.com/grailbio/petcluster/interval"
)

// Opts for PET clustering.
type Opts struct {
	// Commandline options.

	// SelfLigation is the minimum distance between the end of the first anchor
	// and the start of the second one.  Closer pairs are self-ligation
	// artifacts.
	SelfLigation int64
	// Extension is added to both sides of both anchors before clustering.
	Extension int64
	// PETCutoff is the minimum count of a raw PET.
	PETCutoff uint64
	// ClusterCutoff is the minimum total count of an emitted cluster.
	ClusterCutoff uint64
	// PeaksPath optionally names a BED file; both anchors of a kept PET must
	// intersect one of its intervals.
	PeaksPath string
	// Parallelism is the number of partitions clustered concurrently.
	// 0 = runtime.NumCPU().
	Parallelism int
	// MaxRounds bounds the number of sort-and-merge rounds.  0 = unbounded.
	MaxRounds int
	// SymmetricOverlap selects SymmetricOverlap instead of ReferenceOverlap as
	// the anchor overlap test.
	SymmetricOverlap bool
	// MaxRecords limits the number of records read from each input file.
	// 0 = no limit.
	MaxRecords int

	// Data derived from commandline options.

	// Peaks is loaded from PeaksPath when nil.
	Peaks *interval.BEDUnion
}

// DefaultOpts matches the defaults of the reference ChIA-PET clustering tool.
var DefaultOpts = Opts{
	SelfLigation:  8000,
	Extension:     25,
	PETCutoff:     1,
	ClusterCutoff: 9,
	Parallelism:   0,
	MaxRounds:     0,
}

func validate(opts *Opts) error {
	if opts.SelfLigation < 0 {
		return errors.E(errors.Invalid, "self-ligation must be non-negative")
	}
	if opts.Extension < 0 {
		return errors.E(errors.Invalid, "extension must be non-negative")
	}
	if opts.Parallelism < 0 {
		return errors.E(errors.Invalid, "parallelism must be non-negative")
	}
	if opts.MaxRounds < 0 {
		return errors.E(errors.Invalid, "max-rounds must be non-negative")
	}
	if opts.MaxRecords < 0 {
		return errors.E(errors.Invalid, "nrows must be non-negative")
	}
	return nil
}

func (opts *Opts) overlapFunc() OverlapFunc {
	if opts.SymmetricOverlap {
		return SymmetricOverlap
	}
	return ReferenceOverlap
}
