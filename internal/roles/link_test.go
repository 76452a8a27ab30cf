package roles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skybingo/bingobot/internal/store"
)

const otherUUID = "069a79f444e94726a5befca90e38aaf5"

func TestLinkAccountRequiresDiscordOnProfile(t *testing.T) {
	api := baseAPI(runningBingo(5))
	api.uuids["SomePlayer"] = testUUID
	svc := newService(t, api)

	status, err := svc.LinkAccount(context.Background(), 1, "alice", "SomePlayer")
	require.NoError(t, err)
	require.Equal(t, LinkNoDiscord, status.Outcome)
}

func TestLinkAccountRejectsForeignDiscord(t *testing.T) {
	api := baseAPI(runningBingo(5))
	api.uuids["SomePlayer"] = testUUID
	api.discords[testUUID] = "bob"
	svc := newService(t, api)

	status, err := svc.LinkAccount(context.Background(), 1, "alice", "SomePlayer")
	require.NoError(t, err)
	require.Equal(t, LinkDifferentDiscord, status.Outcome)
	require.Equal(t, "bob", status.OtherDiscordName)
}

func TestLinkAccountSuccessAndDuplicates(t *testing.T) {
	api := baseAPI(runningBingo(5))
	api.uuids["SomePlayer"] = testUUID
	api.uuids["OtherPlayer"] = otherUUID
	api.names[otherUUID] = "OtherPlayer"
	api.discords[testUUID] = "alice"
	api.discords[otherUUID] = "alice"
	svc := newService(t, api)

	status, err := svc.LinkAccount(context.Background(), 1, "alice", "SomePlayer")
	require.NoError(t, err)
	require.Equal(t, LinkSuccess, status.Outcome)
	require.Equal(t, testUUID, status.UUID)

	// Same Discord account, second profile.
	status, err = svc.LinkAccount(context.Background(), 1, "alice", "OtherPlayer")
	require.NoError(t, err)
	require.Equal(t, LinkDuplicateMinecraft, status.Outcome)
	require.Equal(t, "SomePlayer", status.OtherUsername)

	// Second Discord account, already linked profile.
	status, err = svc.LinkAccount(context.Background(), 2, "alice", "SomePlayer")
	require.NoError(t, err)
	require.Equal(t, LinkDuplicateDiscord, status.Outcome)
	require.Equal(t, uint64(1), status.OtherDiscordID)
}

func TestLinkRequestsRoundTrip(t *testing.T) {
	api := baseAPI(runningBingo(5))
	svc := newService(t, api)
	ctx := context.Background()

	_, err := store.Submit(ctx, svc.DB, InsertLinked{User: LinkedUser{Discord: 1, UUID: testUUID}})
	require.NoError(t, err)

	byDiscord, err := store.Submit(ctx, svc.DB, GetLinkedByDiscord{Discord: 1})
	require.NoError(t, err)
	require.NotNil(t, byDiscord)
	require.Equal(t, testUUID, byDiscord.UUID)

	byUUID, err := store.Submit(ctx, svc.DB, GetLinkedByMinecraft{UUID: testUUID})
	require.NoError(t, err)
	require.NotNil(t, byUUID)
	require.Equal(t, uint64(1), byUUID.Discord)

	// Relinking moves the profile to the new account.
	_, err = store.Submit(ctx, svc.DB, UpdateLinked{User: LinkedUser{Discord: 2, UUID: testUUID}})
	require.NoError(t, err)
	byUUID, err = store.Submit(ctx, svc.DB, GetLinkedByMinecraft{UUID: testUUID})
	require.NoError(t, err)
	require.Equal(t, uint64(2), byUUID.Discord)

	removed, err := store.Submit(ctx, svc.DB, RemoveLinkedByDiscord{Discord: 2})
	require.NoError(t, err)
	require.NotNil(t, removed)
	require.Equal(t, testUUID, removed.UUID)

	gone, err := store.Submit(ctx, svc.DB, GetLinkedByDiscord{Discord: 2})
	require.NoError(t, err)
	require.Nil(t, gone)

	none, err := store.Submit(ctx, svc.DB, RemoveLinkedByMinecraft{UUID: testUUID})
	require.NoError(t, err)
	require.Nil(t, none)
}
