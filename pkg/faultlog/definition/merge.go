package definition

import (
	"math"
	"sync"

	"github.com/coocood/freecache"
	"github.com/jabolina/go-faultlog/pkg/faultlog/types"
	"github.com/wangjia184/sortedset"
)

var (
	seenValue = []byte{0x1}

	// Entries never expire while a merge is running.
	seenExpiration = 0

	purgatorySize = 10 * 1024 * 1024
)

// ConcatMerge is the default strategy, the logs are concatenated
// in the order they were gathered.
type ConcatMerge struct{}

func (ConcatMerge) Merge(logs ...[]string) []string {
	var merged []string
	for _, log := range logs {
		merged = append(merged, log...)
	}
	return merged
}

// DeduplicateMerge concatenates the logs, but a line is only added
// the first time it is seen. The seen lines are tracked in a
// purgatory, that is cleared on every merge.
type DeduplicateMerge struct {
	mutex *sync.Mutex

	purgatory *freecache.Cache
}

func NewDeduplicateMerge() types.Merger {
	return &DeduplicateMerge{
		mutex:     &sync.Mutex{},
		purgatory: freecache.NewCache(purgatorySize),
	}
}

func (d *DeduplicateMerge) Merge(logs ...[]string) []string {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	defer d.purgatory.Clear()

	var merged []string
	for _, log := range logs {
		for _, line := range log {
			old, err := d.purgatory.GetOrSet([]byte(line), seenValue, seenExpiration)
			if err != nil {
				// Too large for the purgatory, keep it.
				merged = append(merged, line)
				continue
			}

			if old == nil {
				merged = append(merged, line)
			}
		}
	}
	return merged
}

// SortedMerge orders the lines by the acceptance timestamp of the
// command. Identical lines are kept only once and lines that can not
// be decoded are placed at the tail.
type SortedMerge struct{}

func (SortedMerge) Merge(logs ...[]string) []string {
	set := sortedset.New()
	for _, log := range logs {
		for _, line := range log {
			if set.GetByKey(line) != nil {
				continue
			}

			score := sortedset.SCORE(math.MaxInt64)
			if cmd, err := types.DecodeLine(line); err == nil {
				score = sortedset.SCORE(cmd.Timestamp.UnixNano())
			}
			set.AddOrUpdate(line, score, nil)
		}
	}

	nodes := set.GetByRankRange(1, -1, false)
	merged := make([]string, 0, len(nodes))
	for _, node := range nodes {
		merged = append(merged, node.Key())
	}
	return merged
}

// NewMerger resolves the strategy by its name, one of `concat`,
// `dedup` or `sorted`.
func NewMerger(name string) (types.Merger, error) {
	switch name {
	case "", "concat":
		return ConcatMerge{}, nil
	case "dedup":
		return NewDeduplicateMerge(), nil
	case "sorted":
		return SortedMerge{}, nil
	default:
		return nil, types.NewError(types.ErrInvalidConfiguration, "unknown merge strategy %q", name)
	}
}
