// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*Package interval implements interval-union membership queries over sets of
  genomic coordinates represented by BED files, such as ChIP-seq peak calls.
  (Note the 'union'.  Overlapping intervals are merged, not tracked
  separately; the only questions answered are "is this position covered" and
  "does this range touch any interval".)
  Positions are 0-based; BED intervals are half-open [start, end).
*/
package interval
