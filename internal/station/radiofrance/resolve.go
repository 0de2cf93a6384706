/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package radiofrance

// resolveInterval locates dt inside a parent interval whose children may
// leave gaps between one another and against the parent boundaries. It
// returns the interval whose metadata applies at dt and the instant that
// metadata stops applying.
//
// Intervals are half-open [start, end): a timestamp equal to a child's end
// belongs to the following gap, not to the ending child. This boundary rule
// decides which title displays during hand-offs and must not change.
func resolveInterval(dt int64, parent Node) (selected Node, end int64, isChild bool) {
	children := parent.Children
	if len(children) == 0 {
		return parent, parent.End, false
	}
	var next *Node
	for i := len(children) - 1; i >= 0; i-- {
		child := children[i]
		if child.Start > dt {
			// still in the future, remember as the upcoming segment
			next = &children[i]
			continue
		}
		if dt < child.End {
			return child, child.End, true
		}
		// dt sits in the gap after this child: the parent's metadata
		// applies until the next child starts, or until the parent ends
		// when this child was the last one.
		if next != nil {
			return parent, next.Start, false
		}
		return parent, parent.End, false
	}
	// before the first child
	return parent, children[0].Start, false
}
