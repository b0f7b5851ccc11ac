// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*Package pet clusters paired-end tags (PETs) from chromatin-interaction
  sequencing assays such as ChIA-PET.

  A PET links two anchor intervals on the same chromosome and carries an
  observation count.  Two PETs are merged when both their first anchors and
  their second anchors overlap; the merged record covers the bounding box of
  the two and carries the sum of their counts.  Merging is repeated until no
  further merge is possible, which yields the connected components of the
  anchor-overlap graph.

  Processing steps:

    ReadRecords    parse 7-column BEDPE-like files (chrom1 start1 end1 chrom2
                   start2 end2 count), dropping malformed lines.
    Filter         drop inter-chromosomal, inverted, self-ligation and
                   low-count PETs, optionally restrict to PETs whose anchors
                   both hit a peak, then extend both anchors.
    NewPartitions  split the survivors by chromosome.  No merge ever crosses
                   chromosomes, so partitions are independent.
    Cluster        per partition, repeat {sort, sweep-merge} until a round
                   makes no change.  Partitions are processed in parallel.
    Collect        gather the surviving clusters above a count cutoff.

  Within a round the partition's records are sorted by (start1, end1, start2,
  end2) and swept left to right.  For each live record i, later records j are
  examined until start1[j] > end1[i]; a j whose anchors overlap i's is folded
  into i and left behind as a tombstone (count zero).  Merges widen i, which
  can make pairs that were out of order this round mergeable next round, hence
  the fixed-point loop.  Every merge removes one live record, so the loop
  terminates.
*/
package pet
