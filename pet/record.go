// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pet

import (
	"fmt"
	"strings"
)

// Record is one paired-end tag, or after clustering, one cluster.  Coordinates
// are 0-based.  A Record whose Count is zero has been merged into another
// record (a tombstone).
type Record struct {
	Chrom1       string
	Start1, End1 int64
	Chrom2       string
	Start2, End2 int64
	Count        uint64
}

// String renders r as "chr1:100-200 chr1:500-600 (3)".
func (r Record) String() string {
	return fmt.Sprintf("%s:%d-%d %s:%d-%d (%d)", r.Chrom1, r.Start1, r.End1, r.Chrom2, r.Start2, r.End2, r.Count)
}

// Live reports whether r has not been absorbed into another record.
func (r *Record) Live() bool {
	return r.Count != 0
}

// compareMergeKey orders records by (Start1, End1, Start2, End2).
func compareMergeKey(a, b *Record) int {
	switch {
	case a.Start1 != b.Start1:
		return cmpInt64(a.Start1, b.Start1)
	case a.End1 != b.End1:
		return cmpInt64(a.End1, b.End1)
	case a.Start2 != b.Start2:
		return cmpInt64(a.Start2, b.Start2)
	}
	return cmpInt64(a.End2, b.End2)
}

// compareRecords orders records by all seven columns.
func compareRecords(a, b *Record) int {
	if c := strings.Compare(a.Chrom1, b.Chrom1); c != 0 {
		return c
	}
	if a.Start1 != b.Start1 {
		return cmpInt64(a.Start1, b.Start1)
	}
	if a.End1 != b.End1 {
		return cmpInt64(a.End1, b.End1)
	}
	if c := strings.Compare(a.Chrom2, b.Chrom2); c != 0 {
		return c
	}
	if c := compareMergeKey(a, b); c != 0 {
		return c
	}
	switch {
	case a.Count < b.Count:
		return -1
	case a.Count > b.Count:
		return 1
	}
	return 0
}

func cmpInt64(a, b int64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
