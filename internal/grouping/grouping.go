// Package grouping splits an ordered message sequence into authorship runs.
package grouping

// Authored is anything with an author.
type Authored interface {
	AuthorID() int64
}

// RunStarts reports, for each message, whether it opens a new run. The
// first message always does; any later one does when its author differs
// from the message right before it. Elapsed time plays no part.
func RunStarts[M Authored](msgs []M) []bool {
	starts := make([]bool, len(msgs))
	for i := range msgs {
		starts[i] = i == 0 || msgs[i].AuthorID() != msgs[i-1].AuthorID()
	}
	return starts
}

// Run is a half-open index range [Start, End) of one author's messages.
type Run struct {
	AuthorID int64
	Start    int
	End      int
}

func (r Run) Len() int {
	return r.End - r.Start
}

// Runs returns the maximal same-author runs of msgs in order.
func Runs[M Authored](msgs []M) []Run {
	var runs []Run
	for i, start := range RunStarts(msgs) {
		if start {
			runs = append(runs, Run{AuthorID: msgs[i].AuthorID(), Start: i, End: i + 1})
			continue
		}
		runs[len(runs)-1].End = i + 1
	}
	return runs
}
