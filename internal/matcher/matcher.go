// file: internal/matcher/matcher.go
// version: 2.0.0
// guid: 1f2a3b4c-5d6e-7f8a-9b0c-1d2e3f4a5b6c

package matcher

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/jdfalk/audibleshelf/internal/config"
	"github.com/jdfalk/audibleshelf/internal/models"
)

// Merge reconciles local tags with a catalog record and returns the merged
// record. Under remote precedence (the default) catalog fields win whenever
// they are non-empty and local tags only fill gaps; local precedence inverts
// that for the fields a file can actually carry (ASIN, title, author). The
// result is what gets surfaced for user review, never committed silently.
func Merge(local models.LocalFileInfo, remote *models.MetadataRecord, precedence string) *models.MetadataRecord {
	var merged models.MetadataRecord
	if remote != nil {
		merged = *remote
	}

	localWins := precedence == config.PrecedenceLocal

	merged.ASIN = pick(merged.ASIN, local.ASIN, localWins)
	merged.Title = pick(merged.Title, local.Title, localWins)

	if localAuthor := strings.TrimSpace(local.Author); localAuthor != "" {
		if len(merged.Authors) == 0 || (localWins && merged.Authors[0] != localAuthor) {
			merged.Authors = []string{localAuthor}
		}
	}

	return &merged
}

func pick(remote, local string, localWins bool) string {
	remote = strings.TrimSpace(remote)
	local = strings.TrimSpace(local)
	if localWins {
		if local != "" {
			return local
		}
		return remote
	}
	if remote != "" {
		return remote
	}
	return local
}

// Rank annotates candidates with a fuzzy distance between the local tags and
// each candidate (lower is closer, -1 when there is nothing to compare).
// Candidate order is left untouched: ties and near-ties are the user's call,
// the score is display information only.
func Rank(candidates []models.MetadataRecord, local models.LocalFileInfo) {
	reference := strings.TrimSpace(strings.ToLower(strings.TrimSpace(local.Author) + " " + strings.TrimSpace(local.Title)))
	for i := range candidates {
		if reference == "" {
			candidates[i].MatchScore = nil
			continue
		}
		target := strings.ToLower(strings.TrimSpace(candidates[i].JoinedAuthors(" ") + " " + candidates[i].Title))
		score := fuzzy.LevenshteinDistance(reference, target)
		candidates[i].MatchScore = &score
	}
}
