package leaderboard

import (
	"strconv"

	"github.com/gokatarajesh/superover/pkg/http/ws"
)

func toWSEntries(entries []Entry) []ws.LeaderboardEntry {
	result := make([]ws.LeaderboardEntry, len(entries))
	for i, e := range entries {
		result[i] = ws.LeaderboardEntry{
			Rank:     i + 1,
			PlayerID: e.PlayerID,
			Runs:     e.Runs,
			Wins:     e.Wins,
			Games:    e.Games,
			Wickets:  e.Wickets,
		}
	}
	return result
}

func parseInt(val string) int {
	if val == "" {
		return 0
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return i
}
