// Package vote implements the vote-to-skip ballot for a room.
package vote

import "slices"

// DefaultThreshold is the number of distinct voters needed to skip.
const DefaultThreshold = 3

// Result describes the outcome of registering a vote.
type Result struct {
	Recorded     bool // the vote was new and counted
	AlreadyVoted bool // the user had already voted this cycle
	ThresholdMet bool // the distinct voter count reached the threshold
	Votes        int  // distinct voters after this call
	Remaining    int  // votes still needed, 0 once the threshold is met
}

// Ballot collects distinct skip votes until a threshold is reached.
// It is cleared whenever the room skips.
type Ballot struct {
	voters    []string
	threshold int
}

// NewBallot creates a ballot from previously saved voters.
// Duplicate voters are dropped. A threshold below 1 uses DefaultThreshold.
func NewBallot(threshold int, voters []string) *Ballot {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	b := &Ballot{
		voters:    make([]string, 0, len(voters)),
		threshold: threshold,
	}
	for _, v := range voters {
		if !slices.Contains(b.voters, v) {
			b.voters = append(b.voters, v)
		}
	}
	return b
}

// Register counts a vote from user unless the user already voted.
func (b *Ballot) Register(user string) Result {
	if slices.Contains(b.voters, user) {
		return b.result(Result{AlreadyVoted: true})
	}
	b.voters = append(b.voters, user)
	return b.result(Result{Recorded: true})
}

func (b *Ballot) result(r Result) Result {
	r.Votes = len(b.voters)
	r.Remaining = max(b.threshold-r.Votes, 0)
	r.ThresholdMet = r.Votes >= b.threshold
	return r
}

// Clear removes all votes.
func (b *Ballot) Clear() {
	b.voters = b.voters[:0]
}

// Voters returns a copy of the voters in the order they voted.
func (b *Ballot) Voters() []string {
	result := make([]string, len(b.voters))
	copy(result, b.voters)
	return result
}
