package analytics

import (
	"github.com/samber/lo"

	"github.com/mathieu-neron/channelpulse/internal/model"
)

// Chart label layouts used by the dashboard and the channel detail page.
const (
	DashboardLabelLayout = "Jan 02"
	DetailLabelLayout    = "Jan 02, 2006"
)

// ChartFromBuckets shapes a rollup into aligned label/value series.
func ChartFromBuckets(buckets []model.RollupBucket, layout string) model.ChartData {
	return model.ChartData{
		Labels:      lo.Map(buckets, func(b model.RollupBucket, _ int) string { return b.Date.Format(layout) }),
		Subscribers: lo.Map(buckets, func(b model.RollupBucket, _ int) int64 { return b.Subscribers }),
		Views:       lo.Map(buckets, func(b model.RollupBucket, _ int) int64 { return b.Views }),
	}
}

// ChartFromSnapshots shapes one channel's history into aligned series.
func ChartFromSnapshots(snaps []model.Snapshot, layout string) model.ChartData {
	return model.ChartData{
		Labels:      lo.Map(snaps, func(s model.Snapshot, _ int) string { return s.Date.Format(layout) }),
		Subscribers: lo.Map(snaps, func(s model.Snapshot, _ int) int64 { return s.Subscribers }),
		Views:       lo.Map(snaps, func(s model.Snapshot, _ int) int64 { return s.Views }),
	}
}
