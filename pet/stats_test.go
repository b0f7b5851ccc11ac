// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pet

import (
	"testing"

	"github.com/grailbio/petcluster/interval"
	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
	s := Summarize([]Record{
		rec("chr1", 0, 1, 2, 3, 9),
		rec("chr1", 0, 1, 2, 3, 1),
		rec("chr2", 0, 1, 2, 3, 2),
	})
	assert.Equal(t, 3, s.NClusters)
	assert.Equal(t, uint64(12), s.TotalCount)
	assert.Equal(t, uint64(9), s.MaxCount)
	assert.InDelta(t, 4.0, s.MeanCount, 1e-9)
	assert.InDelta(t, 2.0, s.MedianCount, 1e-9)
}

func TestCountHistogram(t *testing.T) {
	hist, percent := CountHistogram([]Record{
		rec("chr1", 0, 1, 2, 3, 1),
		rec("chr1", 0, 1, 2, 3, 1),
		rec("chr1", 0, 1, 2, 3, 3),
		rec("chr1", 0, 1, 2, 3, 15),
	}, 4)
	assert.Equal(t, []int{0, 2, 0, 1}, hist)
	assert.InDeltaSlice(t, []float64{0, 10, 0, 5}, percent, 1e-9)

	hist, percent = CountHistogram(nil, 2)
	assert.Equal(t, []int{0, 0}, hist)
	assert.Equal(t, []float64{0, 0}, percent)
}

func TestSortClusters(t *testing.T) {
	clusters := []Record{
		rec("chr2", 5, 10, 20, 30, 1),
		rec("chr1", 5, 10, 20, 30, 2),
		rec("chr1", 5, 10, 20, 30, 1),
		rec("chr1", 1, 10, 40, 50, 1),
		rec("chr1", 5, 8, 20, 30, 1),
	}
	SortClusters(clusters)
	assert.Equal(t, []Record{
		rec("chr1", 1, 10, 40, 50, 1),
		rec("chr1", 5, 8, 20, 30, 1),
		rec("chr1", 5, 10, 20, 30, 1),
		rec("chr1", 5, 10, 20, 30, 2),
		rec("chr2", 5, 10, 20, 30, 1),
	}, clusters)
}

func TestFilterRegion(t *testing.T) {
	region, err := interval.ParseRegionString("chr8:57,980,001-59,000,000")
	assert.NoError(t, err)
	clusters := []Record{
		rec("chr8", 57980000, 57981000, 58000000, 58001000, 4),
		rec("chr8", 57979999, 57981000, 58000000, 58001000, 4),
		rec("chr8", 57980000, 57981000, 58000000, 59000001, 4),
		rec("chr1", 57980000, 57981000, 58000000, 58001000, 4),
	}
	assert.Equal(t, clusters[:1], FilterRegion(clusters, region))
}
