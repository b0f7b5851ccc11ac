// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package interval

import (
	"bufio"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/base/vcontext"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// GetTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Any (group of) characters <= ' ' is
// treated as a delimiter.
func GetTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		// These simple loops are better than any of the standard library
		// string-split functions for short lines.
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

// NewBEDOpts defines behavior of this package's BED-loading function(s).
type NewBEDOpts struct {
	// OneBasedInput interprets the BED interval boundaries as one-based [start,
	// end] instead of the usual zero-based [start, end).
	OneBasedInput bool
}

// PosType is BEDUnion's coordinate type.  It is wide enough to hold extended
// PET anchor coordinates without overflow checks.
type PosType int64

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = math.MaxInt64

// searchPosType returns the index of x in a[], or the position where x would
// be inserted if x isn't in a (this could be len(a)).  It's exactly the same
// as sort.SearchInts(), except for PosType.
func searchPosType(a []PosType, x PosType) int {
	return sort.Search(len(a), func(i int) bool { return a[i] >= x })
}

// BEDUnion is implemented as a collection of length-2N sequences, where N is
// the number of disjoint intervals on a chromosome, the (0-based) start
// position of interval #k is in element [2k] and the end position is in
// element [2k+1], and the intervals are stored in increasing order.
//
// A BEDUnion is immutable once built, so it is safe for concurrent queries.
type BEDUnion struct {
	// nameMap is a chromosome-keyed map with disjoint-interval-set values.
	nameMap map[string]([]PosType)
	// nBases is the total number of covered positions.
	nBases int64
}

// NBases returns the number of positions covered by the union.
func (u *BEDUnion) NBases() int64 {
	return u.nBases
}

// NChromosomes returns the number of chromosomes with at least one nonempty
// interval.
func (u *BEDUnion) NChromosomes() int {
	n := 0
	for _, chrIntervals := range u.nameMap {
		if len(chrIntervals) > 0 {
			n++
		}
	}
	return n
}

// ContainsByName checks whether the (0-based) interval [pos, pos+1) is
// contained within the BEDUnion.
func (u *BEDUnion) ContainsByName(chrName string, pos PosType) bool {
	chrIntervals := u.nameMap[chrName]
	if chrIntervals == nil {
		return false
	}
	return searchPosType(chrIntervals, pos+1)&1 == 1
}

// IntersectsByName checks whether the (0-based) half-open interval [start,
// limit) shares at least one position with the BEDUnion.  An empty interval
// (limit <= start) is treated as the single position start.
func (u *BEDUnion) IntersectsByName(chrName string, start, limit PosType) bool {
	chrIntervals := u.nameMap[chrName]
	if chrIntervals == nil {
		return false
	}
	if limit <= start {
		limit = start + 1
	}
	idx := searchPosType(chrIntervals, start+1)
	if idx&1 == 1 {
		// start lies inside interval #(idx/2).
		return true
	}
	return idx != len(chrIntervals) && limit > chrIntervals[idx]
}

// Entry represents a single interval, with 0-based coordinates.
type Entry struct {
	ChrName string
	Start0  PosType
	End     PosType
}

// Contains checks whether [start, end) lies entirely within the entry.
func (e Entry) Contains(chrName string, start, end PosType) bool {
	return chrName == e.ChrName && start >= e.Start0 && end <= e.End
}

func scanBEDEntries(scanner *bufio.Scanner, opts NewBEDOpts) (entries []Entry, err error) {
	var startSubtract int64
	if opts.OneBasedInput {
		startSubtract++
	}
	var tokens [3][]byte
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		curLine := scanner.Bytes()
		nToken := GetTokens(tokens[:], curLine)
		if nToken == 0 || isBEDHeader(tokens[0]) {
			continue
		}
		if nToken != 3 {
			err = errors.Errorf("interval.scanBEDEntries: line %d has fewer tokens than expected", lineIdx)
			return
		}
		var parsedStart, parsedEnd int64
		if parsedStart, err = strconv.ParseInt(gunsafe.BytesToString(tokens[1]), 10, 64); err != nil {
			err = errors.Wrapf(err, "interval.scanBEDEntries: line %d", lineIdx)
			return
		}
		parsedStart -= startSubtract
		if parsedStart < 0 {
			err = errors.Errorf("interval.scanBEDEntries: negative start coordinate %s on line %d", tokens[1], lineIdx)
			return
		}
		if parsedEnd, err = strconv.ParseInt(gunsafe.BytesToString(tokens[2]), 10, 64); err != nil {
			err = errors.Wrapf(err, "interval.scanBEDEntries: line %d", lineIdx)
			return
		}
		if parsedEnd < parsedStart {
			err = errors.Errorf("interval.scanBEDEntries: invalid coordinate pair on line %d", lineIdx)
			return
		}
		// tokens[0] refers to bytes on curLine that will be overwritten soon.
		entries = append(entries, Entry{
			ChrName: string(tokens[0]),
			Start0:  PosType(parsedStart),
			End:     PosType(parsedEnd),
		})
	}
	err = scanner.Err()
	return
}

func isBEDHeader(firstToken []byte) bool {
	if firstToken[0] == '#' {
		return true
	}
	s := gunsafe.BytesToString(firstToken)
	return s == "track" || s == "browser"
}

// NewBEDUnion loads the intervals from an interval-BED, merging
// touching/overlapping intervals and eliminating empty ones in the process.
// Peak callers do not always emit sorted output, so the input need not be
// sorted.
func NewBEDUnion(reader io.Reader, opts NewBEDOpts) (bedUnion BEDUnion, err error) {
	scanner := bufio.NewScanner(reader)
	var entries []Entry
	if entries, err = scanBEDEntries(scanner, opts); err != nil {
		return
	}
	if bedUnion, err = NewBEDUnionFromEntries(entries); err != nil {
		return
	}
	log.Printf("BED loaded, %d interval(s), %d base(s) covered.", len(entries), bedUnion.nBases)
	return
}

// NewBEDUnionFromPath is a wrapper for NewBEDUnion that takes a path instead
// of an io.Reader.  Gzipped files are decompressed.
func NewBEDUnionFromPath(path string, opts NewBEDOpts) (bedUnion BEDUnion, err error) {
	ctx := vcontext.Background()
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		if reader, err = gzip.NewReader(reader); err != nil {
			err = errors.Wrapf(err, "interval.NewBEDUnionFromPath: %s", path)
			return
		}
	}
	if bedUnion, err = NewBEDUnion(reader, opts); err != nil {
		err = errors.Wrapf(err, "interval.NewBEDUnionFromPath: %s", path)
	}
	return
}

// NewBEDUnionFromEntries initializes a BEDUnion from a []Entry in any order.
// The argument is sorted in place.
func NewBEDUnionFromEntries(entries []Entry) (bedUnion BEDUnion, err error) {
	for _, entry := range entries {
		if entry.Start0 < 0 {
			err = errors.Errorf("interval.NewBEDUnionFromEntries: negative start coordinate on %s", entry.ChrName)
			return
		}
		if entry.End < entry.Start0 {
			err = errors.Errorf("interval.NewBEDUnionFromEntries: invalid coordinate pair [%d, %d)", entry.Start0, entry.End)
			return
		}
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := strings.Compare(a.ChrName, b.ChrName); c != 0 {
			return c
		}
		switch {
		case a.Start0 < b.Start0:
			return -1
		case a.Start0 > b.Start0:
			return 1
		}
		return 0
	})

	bedUnion.nameMap = make(map[string]([]PosType))
	prevChr := ""
	// prevEnd == -1 marks a chromosome mentioned only by empty intervals.
	var prevStart, prevEnd PosType = -1, -1
	var chrIntervals []PosType
	flush := func() {
		if prevEnd != -1 {
			chrIntervals = append(chrIntervals, prevStart, prevEnd)
			bedUnion.nBases += int64(prevEnd - prevStart)
		}
	}
	for i, entry := range entries {
		if i == 0 || entry.ChrName != prevChr {
			if i != 0 {
				flush()
				bedUnion.nameMap[prevChr] = chrIntervals
			}
			prevChr = entry.ChrName
			chrIntervals = []PosType{}
			prevStart, prevEnd = -1, -1
		}
		if entry.End == entry.Start0 {
			continue
		}
		if prevEnd == -1 {
			prevStart, prevEnd = entry.Start0, entry.End
			continue
		}
		if entry.Start0 > prevEnd {
			// New interval doesn't touch the previous one, so we can save the
			// previous one.
			flush()
			prevStart, prevEnd = entry.Start0, entry.End
		} else if entry.End > prevEnd {
			// Intervals overlap, merge them.
			prevEnd = entry.End
		}
	}
	if len(entries) > 0 {
		flush()
		bedUnion.nameMap[prevChr] = chrIntervals
	}
	return
}

// ParseRegionString parses a region string of one of the forms
//   [contig ID]:[1-based first pos]-[last pos]
//   [contig ID]:[1-based pos]
//   [contig ID]
// returning a contig ID and 0-based interval boundaries.  The interval
// [0, PosTypeMax - 1] is returned if there is no positional restriction.
// Thousands separators (commas) in positions are accepted.
func ParseRegionString(region string) (result Entry, err error) {
	if len(region) == 0 {
		err = errors.New("interval.ParseRegionString: empty region string")
		return
	}
	colonPos := strings.IndexByte(region, ':')
	if colonPos == -1 {
		result.ChrName = region
		result.Start0 = 0
		result.End = PosTypeMax - 1
		return
	}
	if colonPos == 0 {
		err = errors.New("interval.ParseRegionString: empty contig ID")
		return
	}
	result.ChrName = region[0:colonPos]
	rangeStr := strings.Replace(region[colonPos+1:], ",", "", -1)
	dashPos := strings.IndexByte(rangeStr, '-')
	if dashPos == -1 {
		var pos1 int64
		if pos1, err = strconv.ParseInt(rangeStr, 10, 64); err != nil {
			return
		}
		if pos1 <= 0 {
			err = errors.Errorf("interval.ParseRegionString: position %v in region string out of range", rangeStr)
			return
		}
		result.Start0 = PosType(pos1 - 1)
		result.End = PosType(pos1)
		return
	}
	start1Str := rangeStr[:dashPos]
	endStr := rangeStr[dashPos+1:]
	var start1, end0 int64
	if start1, err = strconv.ParseInt(start1Str, 10, 64); err != nil {
		return
	}
	if start1 <= 0 {
		err = errors.Errorf("interval.ParseRegionString: position %v in region string out of range", start1Str)
		return
	}
	if end0, err = strconv.ParseInt(endStr, 10, 64); err != nil {
		return
	}
	if end0 < start1 || end0 >= PosTypeMax {
		err = errors.Errorf("interval.ParseRegionString: invalid range string %v", rangeStr)
		return
	}
	result.Start0 = PosType(start1 - 1)
	result.End = PosType(end0)
	return
}
