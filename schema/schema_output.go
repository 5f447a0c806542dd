package schema

// EnrichedRanking adds presentation data to a RankedEntity.
type EnrichedRanking struct {
	Rank  int    `json:"rank"`
	Label string `json:"label"`
	RankedEntity
}

// EnrichRankings adds position and tier label to a ranking result.
func EnrichRankings(ranked []RankedEntity) []EnrichedRanking {
	output := make([]EnrichedRanking, len(ranked))
	for i, r := range ranked {
		output[i] = EnrichedRanking{
			Rank:         i + 1,
			Label:        r.Tier.Label(),
			RankedEntity: r,
		}
	}
	return output
}

// RankResult is a ranking together with the scored vectors it was derived from.
type RankResult struct {
	Variant  RankVariant    // Ranking variant applied
	Source   string         // Dataset the entities came from
	Layout   Layout         // Criteria order of every vector
	Rankings []RankedEntity // Ordered best tier first
	Scored   []ScoredEntity // Scored entities in name order
	RunID    int64          // Run store ID; 0 when tracking is disabled
}

// ScoredByName indexes the scored entities of a result.
func (r RankResult) ScoredByName() map[string]ScoredEntity {
	out := make(map[string]ScoredEntity, len(r.Scored))
	for _, s := range r.Scored {
		out[s.Name] = s
	}
	return out
}
