package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathieu-neron/channelpulse/internal/apperr"
	"github.com/mathieu-neron/channelpulse/internal/model"
	"github.com/mathieu-neron/channelpulse/internal/youtube"
)

func TestAddChannel_SeedsTodaySnapshot(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.clock.setDay(10)
	e.source.channels["UCa"] = youtube.ChannelInfo{
		ExternalID:        "UCa",
		Name:              "Alpha Channel",
		ImageURL:          "https://img/a.jpg",
		UploadsPlaylistID: "UUa",
		Metrics:           model.Metrics{Subscribers: 100, Views: 5000, Videos: 12},
	}
	e.source.resolved["@alpha"] = "UCa"

	ch, err := e.channelSvc.Add(ctx, model.AddChannelRequest{ChannelQuery: " @alpha ", Nickname: " Al "})
	require.NoError(t, err)
	assert.Equal(t, "UCa", ch.ExternalID)
	assert.Equal(t, "Alpha Channel", ch.Name)
	assert.Equal(t, "Al", ch.Nickname)
	assert.Equal(t, model.DefaultCategory, ch.Category)
	require.NotNil(t, ch.UploadsPlaylistID)
	assert.Equal(t, "UUa", *ch.UploadsPlaylistID)

	snaps, err := e.snapshots.ListByChannel(ctx, ch.ID, nil)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, day(10), snaps[0].Date)
	assert.Equal(t, int64(5000), snaps[0].Views)
}

func TestAddChannel_Errors(t *testing.T) {
	t.Run("already tracked", func(t *testing.T) {
		e := newEnv(t)
		e.add(t, "UCa", 1, 10)
		fetches := e.source.fetches

		_, err := e.channelSvc.Add(context.Background(), model.AddChannelRequest{ChannelQuery: "UCa"})
		assert.ErrorIs(t, err, apperr.ErrConflict)
		assert.Equal(t, fetches, e.source.fetches, "no fetch for a tracked channel")
	})

	t.Run("nothing found upstream", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.channelSvc.Add(context.Background(), model.AddChannelRequest{ChannelQuery: "nobody"})
		assert.ErrorIs(t, err, apperr.ErrNotFound)

		n, err := e.channels.Count(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("not configured", func(t *testing.T) {
		e := newEnv(t)
		e.source.configured = false
		_, err := e.channelSvc.Add(context.Background(), model.AddChannelRequest{ChannelQuery: "UCa"})
		assert.ErrorIs(t, err, apperr.ErrNotConfigured)
		assert.Zero(t, e.source.resolves)
	})

	t.Run("blank query", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.channelSvc.Add(context.Background(), model.AddChannelRequest{ChannelQuery: "   "})
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	})
}

func TestListChannels_RankedWithLastKnownMetrics(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.add(t, "UCsmall", 1, 10)
	e.add(t, "UCbig", 1, 1000)
	e.add(t, "UCmid", 2, 500)

	e.clock.setDay(5)
	entries, err := e.channelSvc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "UCbig", entries[0].ExternalID)
	assert.Equal(t, "UCmid", entries[1].ExternalID)
	assert.Equal(t, "UCsmall", entries[2].ExternalID)
	assert.Equal(t, "2024-05-02", entries[1].LastSynced)
	assert.Equal(t, int64(500), entries[1].Subscribers)
}

func TestUpdateTagsAndCategories(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.add(t, "UCa", 1, 10)
	e.add(t, "UCb", 1, 20)

	music := " Music "
	ch, err := e.channelSvc.UpdateTags(ctx, a.ID, model.UpdateChannelRequest{Category: &music})
	require.NoError(t, err)
	assert.Equal(t, "Music", ch.Category)

	cats, err := e.channelSvc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Default", "Music"}, cats)

	filtered, err := e.channelSvc.List(ctx, "Music")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, a.ID, filtered[0].ID)

	empty := ""
	ch, err = e.channelSvc.UpdateTags(ctx, a.ID, model.UpdateChannelRequest{Category: &empty})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultCategory, ch.Category)

	_, err = e.channelSvc.UpdateTags(ctx, 404, model.UpdateChannelRequest{Category: &music})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteChannel_RemovesHistory(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.add(t, "UCa", 1, 10)
	b := e.add(t, "UCb", 1, 20)

	require.NoError(t, e.channelSvc.Delete(ctx, a.ID))
	assert.ErrorIs(t, e.channelSvc.Delete(ctx, a.ID), apperr.ErrNotFound)

	count, err := e.snapshots.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = e.channelSvc.Get(ctx, b.ID)
	require.NoError(t, err)
}
