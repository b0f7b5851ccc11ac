// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pet

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(chrom string, start1, end1, start2, end2 int64, count uint64) Record {
	return Record{chrom, start1, end1, chrom, start2, end2, count}
}

func clusterAll(t *testing.T, records []Record, opts Opts) []*Partition {
	parts := NewPartitions(records)
	_, err := Cluster(context.Background(), parts, &opts)
	require.NoError(t, err)
	return parts
}

// randomRecords generates n valid PETs on the given chromosomes with
// coordinates in [0, span), dense enough that many of them overlap.
func randomRecords(r *rand.Rand, chroms []string, n int, span int64) []Record {
	records := make([]Record, n)
	for i := range records {
		start1 := r.Int63n(span)
		start2 := r.Int63n(span)
		records[i] = rec(chroms[r.Intn(len(chroms))],
			start1, start1+r.Int63n(span/20+1),
			start2, start2+r.Int63n(span/20+1),
			uint64(1+r.Intn(5)))
	}
	return records
}

func totalCount(records []Record) uint64 {
	var n uint64
	for _, r := range records {
		n += r.Count
	}
	return n
}

func TestMergeScenario(t *testing.T) {
	records := []Record{
		rec("chr1", 100, 200, 500, 600, 3),
		rec("chr1", 150, 250, 550, 650, 4),
		rec("chr1", 1000, 1100, 2000, 2100, 1),
	}
	parts := clusterAll(t, records, DefaultOpts)
	assert.Equal(t, []Record{
		rec("chr1", 100, 250, 500, 650, 7),
		rec("chr1", 1000, 1100, 2000, 2100, 1),
	}, Collect(parts, 0))
	assert.Equal(t, []Record{rec("chr1", 100, 250, 500, 650, 7)}, Collect(parts, 5))
}

func TestFirstAnchorOnlyOverlapDoesNotMerge(t *testing.T) {
	records := []Record{
		rec("chr1", 100, 200, 500, 600, 3),
		rec("chr1", 150, 250, 700, 800, 4),
	}
	for _, symmetric := range []bool{false, true} {
		opts := DefaultOpts
		opts.SymmetricOverlap = symmetric
		parts := clusterAll(t, append([]Record(nil), records...), opts)
		assert.Equal(t, records, Collect(parts, 0))
	}
}

func TestNestedSecondAnchor(t *testing.T) {
	// The second anchor of the first record lies strictly inside the second
	// anchor of the second record.
	records := []Record{
		rec("chr1", 100, 200, 1000, 1100, 1),
		rec("chr1", 150, 250, 900, 1200, 1),
	}
	parts := clusterAll(t, append([]Record(nil), records...), DefaultOpts)
	expect.EQ(t, Collect(parts, 0), records)

	opts := DefaultOpts
	opts.SymmetricOverlap = true
	parts = clusterAll(t, append([]Record(nil), records...), opts)
	expect.EQ(t, Collect(parts, 0), []Record{rec("chr1", 100, 250, 900, 1200, 2)})
}

func TestMultiRoundConvergence(t *testing.T) {
	// The first round merges the last two records, which makes the result
	// overlap the first record in the second round.
	records := []Record{
		rec("chr1", 0, 10, 100, 110, 1),
		rec("chr1", 5, 15, 200, 210, 1),
		rec("chr1", 12, 20, 105, 205, 1),
	}
	p := NewPartition("chr1", append([]Record(nil), records...))
	var changes []int
	for !p.Converged() {
		c, err := p.Round(ReferenceOverlap)
		require.NoError(t, err)
		changes = append(changes, c)
	}
	assert.Equal(t, []int{1, 1, 0}, changes)
	assert.Equal(t, []Record{rec("chr1", 0, 20, 100, 210, 3)}, p.Clusters())

	parts := NewPartitions(append([]Record(nil), records...))
	stats, err := Cluster(context.Background(), parts, &DefaultOpts)
	require.NoError(t, err)
	assert.Equal(t, ClusterStats{Rounds: 3, Merges: 2, Live: 1}, stats)

	opts := DefaultOpts
	opts.MaxRounds = 2
	parts = NewPartitions(append([]Record(nil), records...))
	_, err = Cluster(context.Background(), parts, &opts)
	assert.Error(t, err)
}

func TestTombstonesNeverMatch(t *testing.T) {
	p := NewPartition("chr1", []Record{
		rec("chr1", 100, 200, 500, 600, 0),
		rec("chr1", 150, 250, 550, 650, 4),
	})
	assert.Equal(t, 1, p.NLive())
	c, err := p.Round(ReferenceOverlap)
	require.NoError(t, err)
	assert.Equal(t, 0, c)
	assert.True(t, p.Converged())
	assert.Equal(t, []Record{rec("chr1", 150, 250, 550, 650, 4)}, p.Clusters())
}

func TestCountOverflow(t *testing.T) {
	records := []Record{
		rec("chr1", 100, 200, 500, 600, math.MaxUint64),
		rec("chr1", 150, 250, 550, 650, 1),
	}
	parts := NewPartitions(records)
	_, err := Cluster(context.Background(), parts, &DefaultOpts)
	assert.Error(t, err)
}

func TestEmptyInput(t *testing.T) {
	parts := NewPartitions(nil)
	stats, err := Cluster(context.Background(), parts, &DefaultOpts)
	require.NoError(t, err)
	assert.Equal(t, ClusterStats{}, stats)
	assert.Empty(t, Collect(parts, 0))

	p := NewPartition("chr1", nil)
	c, err := p.Round(ReferenceOverlap)
	require.NoError(t, err)
	assert.Equal(t, 0, c)
	assert.True(t, p.Converged())
}

func TestCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	parts := NewPartitions([]Record{rec("chr1", 0, 10, 100, 110, 1)})
	_, err := Cluster(ctx, parts, &DefaultOpts)
	assert.Error(t, err)
}

func TestNewPartitions(t *testing.T) {
	records := []Record{
		rec("chr2", 1, 2, 3, 4, 1),
		rec("chr1", 5, 6, 7, 8, 1),
		rec("chr2", 9, 10, 11, 12, 1),
		rec("chr10", 13, 14, 15, 16, 1),
	}
	parts := NewPartitions(records)
	require.Equal(t, 3, len(parts))
	assert.Equal(t, "chr1", parts[0].Chrom)
	assert.Equal(t, "chr10", parts[1].Chrom)
	assert.Equal(t, "chr2", parts[2].Chrom)
	assert.Equal(t, []Record{records[0], records[2]}, parts[2].Clusters())
	assert.Equal(t, 2, parts[2].Len())
}

// checkClosure verifies that no pair of clusters in a converged partition
// passes the overlap test the sweep would apply to it.
func checkClosure(t *testing.T, p *Partition, symmetric bool) {
	clusters := p.Clusters()
	for a := range clusters {
		for b := a + 1; b < len(clusters); b++ {
			if symmetric {
				if SymmetricOverlap(&clusters[a], &clusters[b]) {
					t.Fatalf("%s: %v and %v still overlap", p.Chrom, clusters[a], clusters[b])
				}
				continue
			}
			if clusters[b].Start1 > clusters[a].End1 {
				break
			}
			if ReferenceOverlap(&clusters[a], &clusters[b]) {
				t.Fatalf("%s: %v and %v still overlap", p.Chrom, clusters[a], clusters[b])
			}
		}
	}
}

func TestClusterProperties(t *testing.T) {
	r := rand.New(rand.NewSource(0))
	chroms := []string{"chr1", "chr2", "chr3", "chrX"}
	for iter := 0; iter < 50; iter++ {
		symmetric := iter%2 == 1
		records := randomRecords(r, chroms, 1+r.Intn(400), 1+r.Int63n(20000))
		want := map[string]uint64{}
		for _, rec := range records {
			want[rec.Chrom1] += rec.Count
		}

		opts := DefaultOpts
		opts.SymmetricOverlap = symmetric
		opts.Parallelism = 1 + iter%4
		parts := NewPartitions(records)
		stats, err := Cluster(context.Background(), parts, &opts)
		require.NoError(t, err)

		nLive := 0
		for _, p := range parts {
			// Count conservation.
			assert.Equal(t, want[p.Chrom], totalCount(p.Clusters()), p.Chrom)
			// Idempotence of convergence.
			require.True(t, p.Converged())
			c, err := p.Round(opts.overlapFunc())
			require.NoError(t, err)
			assert.Equal(t, 0, c)
			checkClosure(t, p, symmetric)
			nLive += p.NLive()
			assert.Equal(t, p.NLive(), len(p.Clusters()))
		}
		assert.Equal(t, nLive, stats.Live)
		assert.Equal(t, len(records)-stats.Merges, stats.Live)
	}
}

func TestMonotonicShrinkage(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for iter := 0; iter < 20; iter++ {
		records := randomRecords(r, []string{"chr1"}, 300, 5000)
		p := NewPartition("chr1", records)
		prev := p.NLive()
		for !p.Converged() {
			c, err := p.Round(ReferenceOverlap)
			require.NoError(t, err)
			if c > 0 {
				assert.True(t, p.NLive() < prev)
			}
			assert.Equal(t, prev-c, p.NLive())
			prev = p.NLive()
			require.True(t, p.Rounds() <= len(records)+1)
		}
	}
}

func TestPartitionIndependence(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for iter := 0; iter < 20; iter++ {
		chr1 := randomRecords(r, []string{"chr1"}, 200, 5000)
		chr2 := randomRecords(r, []string{"chr2"}, 200, 5000)

		alone := clusterAll(t, append([]Record(nil), chr1...), DefaultOpts)
		require.Equal(t, 1, len(alone))

		// Interleave the other chromosome's records with chr1's.
		var mixed []Record
		for i := range chr1 {
			mixed = append(mixed, chr2[i], chr1[i])
		}
		together := clusterAll(t, mixed, DefaultOpts)
		require.Equal(t, 2, len(together))
		assert.Equal(t, alone[0].Clusters(), together[0].Clusters())
	}
}

func TestParallelismDeterminism(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	records := randomRecords(r, []string{"chr1", "chr2", "chr3", "chr4", "chr5"}, 2000, 50000)
	var results [][]Record
	for _, parallelism := range []int{1, 2, 8} {
		opts := DefaultOpts
		opts.Parallelism = parallelism
		parts := clusterAll(t, append([]Record(nil), records...), opts)
		results = append(results, Collect(parts, 0))
	}
	assert.Equal(t, results[0], results[1])
	assert.Equal(t, results[0], results[2])
}

func BenchmarkCluster(b *testing.B) {
	r := rand.New(rand.NewSource(0))
	records := randomRecords(r, []string{"chr1", "chr2", "chr3", "chr4"}, 200000, 50000000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		parts := NewPartitions(records)
		if _, err := Cluster(context.Background(), parts, &DefaultOpts); err != nil {
			b.Fatal(err)
		}
	}
}
