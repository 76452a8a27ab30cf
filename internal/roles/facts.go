package roles

import (
	"context"
	"log/slog"
	"slices"

	"github.com/skybingo/bingobot/internal/bingo"
	"github.com/skybingo/bingobot/internal/hypixel"
	"github.com/skybingo/bingobot/internal/playercache"
	"github.com/skybingo/bingobot/internal/store"
)

// Service derives player facts from the API, reading through the per-event
// cache. A fetched fact is written back only when it can no longer change:
// either the running event has ended, or the fact already reflects it. Facts
// that a failed fetch would have produced are never cached.
type Service struct {
	DB  *store.Actor
	API hypixel.Provider
}

// PlayerFacts is everything role assignment is derived from.
type PlayerFacts struct {
	Username      string
	Blackouts     []bingo.Bingo
	Rank          uint8
	Immortal      bool
	NetworkBingos []hypixel.NetworkBingo
}

// PlayerFacts collects a player's earned facts, hitting the API only for
// cache misses.
func (s *Service) PlayerFacts(ctx context.Context, playerUUID string) (PlayerFacts, error) {
	current, err := s.API.UpdateCurrentBingo(ctx)
	if err != nil {
		return PlayerFacts{}, err
	}
	bingoEnded := current.Ended()
	currentNetwork := hypixel.NetworkBingos[len(hypixel.NetworkBingos)-1]
	networkActive, err := store.Submit(ctx, s.DB, bingo.GetNetworkActive{})
	if err != nil {
		return PlayerFacts{}, err
	}

	completionIDs, err := s.completions(ctx, playerUUID, current, bingoEnded)
	if err != nil {
		return PlayerFacts{}, err
	}
	blackouts, err := store.Submit(ctx, s.DB, bingo.CompleteData{IDs: completionIDs})
	if err != nil {
		return PlayerFacts{}, err
	}
	currentCompleted := slices.ContainsFunc(blackouts, func(b bingo.Bingo) bool {
		return b.ID() == current.Bingo.ID()
	})

	networkBingos, err := s.networkBingos(ctx, playerUUID, currentNetwork, networkActive)
	if err != nil {
		return PlayerFacts{}, err
	}

	rank, immortal, err := s.rankAndImmortal(ctx, playerUUID, current, bingoEnded, currentCompleted, blackouts)
	if err != nil {
		return PlayerFacts{}, err
	}

	username, err := s.API.Username(ctx, playerUUID)
	if err != nil {
		return PlayerFacts{}, err
	}

	return PlayerFacts{
		Username:      username,
		Blackouts:     blackouts,
		Rank:          rank,
		Immortal:      immortal,
		NetworkBingos: networkBingos,
	}, nil
}

func (s *Service) completions(ctx context.Context, playerUUID string, current hypixel.CurrentBingo, bingoEnded bool) ([]uint8, error) {
	cached, err := store.Submit(ctx, s.DB, playercache.CachedCompletions{UUID: playerUUID})
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return setIndexes(cached), nil
	}

	ids, err := s.API.BingoCompletions(ctx, playerUUID)
	if err != nil {
		return nil, err
	}
	// The set can only grow while the event runs; it is final once the
	// event ended or the player already completed it.
	if bingoEnded || slices.Contains(ids, current.Bingo.ID()) {
		_, err := store.Submit(ctx, s.DB, playercache.PutCompletions{
			UUID:        playerUUID,
			Completions: bingo.BitSetFromIndexes(ids),
		})
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func (s *Service) networkBingos(ctx context.Context, playerUUID string, currentNetwork hypixel.NetworkBingo, networkActive bool) ([]hypixel.NetworkBingo, error) {
	cached, err := store.Submit(ctx, s.DB, playercache.CachedNetworkBingos{UUID: playerUUID})
	if err != nil {
		return nil, err
	}
	if cached != nil {
		var out []hypixel.NetworkBingo
		for _, idx := range cached.AllSet() {
			out = append(out, hypixel.NetworkBingo(idx))
		}
		return out, nil
	}

	completions, err := s.API.NetworkBingoCompletions(ctx, playerUUID)
	if err != nil {
		return nil, err
	}
	if slices.Contains(completions, currentNetwork) || !networkActive {
		ids := make([]uint8, len(completions))
		for i, b := range completions {
			ids[i] = uint8(b)
		}
		_, err := store.Submit(ctx, s.DB, playercache.PutNetworkBingos{
			UUID:        playerUUID,
			Completions: bingo.BitSetFromIndexes(ids),
		})
		if err != nil {
			return nil, err
		}
	}
	return completions, nil
}

func (s *Service) rankAndImmortal(
	ctx context.Context,
	playerUUID string,
	current hypixel.CurrentBingo,
	bingoEnded, currentCompleted bool,
	blackouts []bingo.Bingo,
) (uint8, bool, error) {
	cachedRank, err := store.Submit(ctx, s.DB, playercache.CachedRank{UUID: playerUUID})
	if err != nil {
		return 0, false, err
	}
	cachedImmortal, err := store.Submit(ctx, s.DB, playercache.CachedImmortal{UUID: playerUUID})
	if err != nil {
		return 0, false, err
	}
	if cachedRank != nil && cachedImmortal != nil {
		return *cachedRank, *cachedImmortal, nil
	}

	profile, err := s.API.BingoProfile(ctx, playerUUID)
	if err != nil {
		return 0, false, err
	}
	if profile == nil {
		slog.Warn("no bingo profile found", slog.String("uuid", playerUUID))
		return 0, false, nil
	}

	var immortal bool
	if cachedImmortal != nil {
		immortal = *cachedImmortal
	} else {
		// Immortal is judged against the profile's creation event; once
		// earned it never expires, so only a miss writes it.
		immortal = !profile.HasDeaths && slices.ContainsFunc(blackouts, func(b bingo.Bingo) bool {
			return b.ID() == profile.CreatedDuring
		})
		if bingoEnded || currentCompleted {
			_, err := store.Submit(ctx, s.DB, playercache.PutImmortal{
				UUID:     playerUUID,
				Achieved: immortal,
			})
			if err != nil {
				return 0, false, err
			}
		}
	}

	if bingoEnded || profile.CreatedDuring == current.Bingo.ID() {
		_, err := store.Submit(ctx, s.DB, playercache.PutRank{
			UUID: playerUUID,
			Rank: profile.Rank,
		})
		if err != nil {
			return 0, false, err
		}
	}
	return profile.Rank, immortal, nil
}

func setIndexes(set *bingo.BitSet) []uint8 {
	var ids []uint8
	for _, idx := range set.AllSet() {
		ids = append(ids, uint8(idx))
	}
	return ids
}
