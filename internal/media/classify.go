// Package media implements the reconciliation and activity-aggregation
// core: classifying raw catalog records, resolving them to canonical
// rows, and folding a user's activity onto them for display.
package media

import (
	"github.com/cinelog/cinelog/internal/models"
)

// Catalog constants used by classification.
const (
	animationGenreID = 16
	japanCountryCode = "JP"
)

// Classify derives the canonical kind of a raw catalog record. Rules
// apply in order, first match wins:
//
//  1. explicit "movie" hint -> Film
//  2. explicit "tv" hint    -> Anime if Japanese animation, else TV
//  3. no hint, movie-shaped title field -> Film
//  4. no hint, TV-shaped name field     -> Anime or TV as above
//  5. anything else -> Unknown
//
// The Japan+animation test is the only signal separating TV from
// Anime; non-Japanese animation intentionally classifies as TV.
// Classify is pure and total: no I/O, never panics.
func Classify(rec *models.ExternalMediaRecord) models.MediaKind {
	if rec == nil {
		return models.KindUnknown
	}

	switch rec.MediaType {
	case "movie":
		return models.KindFilm
	case "tv":
		return classifyTV(rec)
	case "":
		if rec.Title != "" && rec.Name == "" {
			return models.KindFilm
		}
		if rec.Name != "" {
			return classifyTV(rec)
		}
	}

	return models.KindUnknown
}

func classifyTV(rec *models.ExternalMediaRecord) models.MediaKind {
	if hasCountry(rec.OriginCountry, japanCountryCode) && hasGenre(rec.GenreIDs, animationGenreID) {
		return models.KindAnime
	}
	return models.KindTV
}

func hasCountry(countries []string, code string) bool {
	for _, c := range countries {
		if c == code {
			return true
		}
	}
	return false
}

func hasGenre(ids []int, id int) bool {
	for _, g := range ids {
		if g == id {
			return true
		}
	}
	return false
}

// StableKey extracts the natural key of a record: its catalog ID plus
// the classified kind. Season-scoped keys are built by the caller via
// SeasonKey since list records never carry a season.
func StableKey(rec *models.ExternalMediaRecord) (models.MediaKey, error) {
	if rec == nil || rec.ExternalID == 0 {
		return models.MediaKey{}, ErrInvalidKey
	}
	return models.MediaKey{
		ExternalID: rec.ExternalID,
		Kind:       Classify(rec),
		Season:     models.NoSeason,
	}, nil
}

// SeasonKey scopes a TV key to a single season.
func SeasonKey(externalID int, kind models.MediaKind, season int) (models.MediaKey, error) {
	if externalID == 0 {
		return models.MediaKey{}, ErrInvalidKey
	}
	return models.MediaKey{ExternalID: externalID, Kind: kind, Season: season}, nil
}
