package msgsync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/classline/classline/internal/models"
)

func TestSendFoldsServerCopyIntoWindow(t *testing.T) {
	fake := newFakeAPI()
	fake.seedConversation("conv-a", 10)
	list, _, thread := newTestStores(fake, 30)
	pipeline := NewSendPipeline(fake, thread, list)
	ctx := context.Background()

	require.NoError(t, thread.Select(ctx, "conv-a"))

	sent, err := pipeline.Send(ctx, "see you at pickup")
	require.NoError(t, err)
	require.NotEmpty(t, sent.ID)
	require.False(t, sent.CreatedAt.IsZero())

	window := thread.Window()
	count := 0
	for _, msg := range window {
		if msg.ID == sent.ID {
			count++
		}
	}
	require.Equal(t, 1, count)
	require.Equal(t, sent.ID, window[len(window)-1].ID)
	requireWindowInvariants(t, thread)
}

func TestSendWithoutSelection(t *testing.T) {
	fake := newFakeAPI()
	list, _, thread := newTestStores(fake, 30)
	pipeline := NewSendPipeline(fake, thread, list)

	_, err := pipeline.Send(context.Background(), "hello?")
	require.ErrorIs(t, err, ErrNoSelection)
}

func TestSendFailureLeavesStateUntouched(t *testing.T) {
	fake := newFakeAPI()
	fake.seedConversation("conv-a", 10)
	list, _, thread := newTestStores(fake, 30)
	pipeline := NewSendPipeline(fake, thread, list)
	ctx := context.Background()

	require.NoError(t, thread.Select(ctx, "conv-a"))
	before := thread.Window()

	fake.mu.Lock()
	fake.sendErr = errors.New("rejected")
	fake.mu.Unlock()

	_, err := pipeline.Send(ctx, "this will fail")
	require.Error(t, err)
	require.Equal(t, before, thread.Window())
}

func TestSendDuringInFlightRefreshAppearsExactlyOnce(t *testing.T) {
	fake := newFakeAPI()
	fake.seedConversation("conv-a", 10)
	list, _, thread := newTestStores(fake, 30)
	pipeline := NewSendPipeline(fake, thread, list)
	ctx := context.Background()

	require.NoError(t, thread.Select(ctx, "conv-a"))

	// Hold a background refresh in flight; its page was computed before
	// the send committed server-side.
	inFlight := make(chan struct{})
	release := make(chan struct{})
	fake.setBeforeGet(func(id string, offset int) {
		select {
		case <-inFlight:
		default:
			close(inFlight)
			<-release
		}
	})

	refreshDone := make(chan error, 1)
	go func() { refreshDone <- thread.Refresh(ctx) }()
	<-inFlight

	sent, err := pipeline.Send(ctx, "sent mid-refresh")
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-refreshDone)

	window := thread.Window()
	count := 0
	for _, msg := range window {
		if msg.ID == sent.ID {
			count++
		}
	}
	require.Equal(t, 1, count)
	require.Len(t, window, 11)
	requireWindowInvariants(t, thread)
}

func TestStartCreatesAndSelectsConversation(t *testing.T) {
	fake := newFakeAPI()
	list, _, thread := newTestStores(fake, 30)
	pipeline := NewSendPipeline(fake, thread, list)
	ctx := context.Background()

	detail, err := pipeline.Start(ctx, models.CreateConversationRequest{
		RecipientID:    "teacher-9",
		StudentID:      "student-3",
		Subject:        "field trip",
		InitialMessage: "is the permission slip due friday?",
	})
	require.NoError(t, err)
	require.NotEmpty(t, detail.ID)
	require.Len(t, detail.Messages, 1)

	require.Equal(t, detail.ID, thread.ConversationID())
	require.Equal(t, PhaseReady, thread.Phase())
	window := thread.Window()
	require.Len(t, window, 1)
	require.Equal(t, "is the permission slip due friday?", window[0].Content)
}
