package analytics

import (
	"sort"

	"github.com/mathieu-neron/channelpulse/internal/model"
)

// ChannelDelta is latest minus baseline. A missing side yields a zero delta;
// callers exclude channels whose latest snapshot is missing before calling.
func ChannelDelta(latest, baseline *model.Snapshot) model.Delta {
	if latest == nil || baseline == nil {
		return model.Delta{}
	}
	return model.Delta{
		Subscribers: latest.Subscribers - baseline.Subscribers,
		Views:       latest.Views - baseline.Views,
		Videos:      latest.Videos - baseline.Videos,
	}
}

// Aggregate is the change between the first and last bucket of a rollup.
type Aggregate struct {
	First  model.RollupBucket
	Last   model.RollupBucket
	Delta  model.Delta
	Empty  bool
	Points int
}

// SubscribersPercent is the subscriber change relative to the first bucket.
func (a Aggregate) SubscribersPercent() float64 {
	return PercentChange(a.First.Subscribers, a.Last.Subscribers)
}

// ViewsPercent is the view change relative to the first bucket.
func (a Aggregate) ViewsPercent() float64 {
	return PercentChange(a.First.Views, a.Last.Views)
}

// VideosPercent is the video change relative to the first bucket.
func (a Aggregate) VideosPercent() float64 {
	return PercentChange(a.First.Videos, a.Last.Videos)
}

// AggregateDelta compares the first and last bucket of an ascending rollup.
func AggregateDelta(buckets []model.RollupBucket) Aggregate {
	if len(buckets) == 0 {
		return Aggregate{Empty: true}
	}
	first, last := buckets[0], buckets[len(buckets)-1]
	return Aggregate{
		First: first,
		Last:  last,
		Delta: model.Delta{
			Subscribers: last.Subscribers - first.Subscribers,
			Views:       last.Views - first.Views,
			Videos:      last.Videos - first.Videos,
		},
		Points: len(buckets),
	}
}

// PercentChange returns (last-first)/first*100, or 0 when first is 0.
func PercentChange(first, last int64) float64 {
	if first == 0 {
		return 0
	}
	return float64(last-first) / float64(first) * 100
}

// RankBySubscribers sorts rows by current subscribers, highest first. Ties
// keep their prior order.
func RankBySubscribers(rows []model.ChannelDashboardRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Subscribers > rows[j].Subscribers
	})
}

// RankEntries is RankBySubscribers for the registry list.
func RankEntries(entries []model.ChannelListEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Subscribers > entries[j].Subscribers
	})
}
