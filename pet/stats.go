// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pet

import (
	"github.com/grailbio/petcluster/interval"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the count distribution of a set of clusters.
type Summary struct {
	NClusters  int
	TotalCount uint64
	MaxCount   uint64
	MeanCount  float64
	// MedianCount is the empirical 0.5 quantile.
	MedianCount float64
}

// Summarize computes the count distribution of clusters.
func Summarize(clusters []Record) Summary {
	s := Summary{NClusters: len(clusters)}
	if len(clusters) == 0 {
		return s
	}
	counts := make([]float64, len(clusters))
	for i := range clusters {
		c := clusters[i].Count
		s.TotalCount += c
		if c > s.MaxCount {
			s.MaxCount = c
		}
		counts[i] = float64(c)
	}
	slices.Sort(counts)
	s.MeanCount = stat.Mean(counts, nil)
	s.MedianCount = stat.Quantile(0.5, stat.Empirical, counts, nil)
	return s
}

// CountHistogram returns, for each count value v < nBins, the number of
// clusters with exactly that count, and that number as a percentage of the
// total count over all clusters.
func CountHistogram(clusters []Record, nBins int) (hist []int, percent []float64) {
	hist = make([]int, nBins)
	percent = make([]float64, nBins)
	var total uint64
	for i := range clusters {
		c := clusters[i].Count
		total += c
		if c < uint64(nBins) {
			hist[c]++
		}
	}
	if total == 0 {
		return
	}
	for i, h := range hist {
		percent[i] = 100 * float64(h) / float64(total)
	}
	return
}

// SortClusters sorts clusters in place by all seven columns.
func SortClusters(clusters []Record) {
	slices.SortFunc(clusters, func(a, b Record) int {
		return compareRecords(&a, &b)
	})
}

// FilterRegion returns the clusters whose two anchors both lie within region.
func FilterRegion(clusters []Record, region interval.Entry) []Record {
	var kept []Record
	for _, c := range clusters {
		if region.Contains(c.Chrom1, interval.PosType(c.Start1), interval.PosType(c.End1)) &&
			region.Contains(c.Chrom2, interval.PosType(c.Start2), interval.PosType(c.End2)) {
			kept = append(kept, c)
		}
	}
	return kept
}
