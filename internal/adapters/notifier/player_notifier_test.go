package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordedNotification struct {
	playerUUID    string
	achievementID string
}

type fakeGameServicesAPI struct {
	notifications []recordedNotification
	err           error
}

func (f *fakeGameServicesAPI) NotifyAchievement(ctx context.Context, playerUUID string, achievementID string) error {
	f.notifications = append(f.notifications, recordedNotification{playerUUID: playerUUID, achievementID: achievementID})
	return f.err
}

func (f *fakeGameServicesAPI) SubmitScore(ctx context.Context, playerUUID string, score int64) error {
	return f.err
}

func TestPlayerNotifier(t *testing.T) {
	t.Parallel()

	t.Run("forwards achievement with bound player", func(t *testing.T) {
		t.Parallel()

		api := &fakeGameServicesAPI{}
		n := NewPlayerNotifier(api, "01234567-89ab-cdef-0123-456789abcdef")

		n.NotifyAchievement(context.Background(), "ten_taps")

		require.Equal(t, []recordedNotification{
			{playerUUID: "01234567-89ab-cdef-0123-456789abcdef", achievementID: "ten_taps"},
		}, api.notifications)
	})

	t.Run("swallows delivery errors", func(t *testing.T) {
		t.Parallel()

		api := &fakeGameServicesAPI{err: errors.New("game services down")}
		n := NewPlayerNotifier(api, "01234567-89ab-cdef-0123-456789abcdef")

		// Must not panic or retry: one attempt per dispatch.
		n.NotifyAchievement(context.Background(), "ten_taps")
		require.Len(t, api.notifications, 1)
	})
}
