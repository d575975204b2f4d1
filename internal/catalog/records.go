package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/cinelog/cinelog/internal/models"
)

// listRecord is the wire shape shared by the catalog's list
// endpoints. Movies carry title, TV carries name; media_type is only
// present on mixed endpoints (trending, multi search).
type listRecord struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	Name          string   `json:"name"`
	MediaType     string   `json:"media_type"`
	PosterPath    string   `json:"poster_path"`
	OriginCountry []string `json:"origin_country"`
	GenreIDs      []int    `json:"genre_ids"`
}

func (r *listRecord) toExternal(defaultType string) *models.ExternalMediaRecord {
	mediaType := r.MediaType
	if mediaType == "" {
		mediaType = defaultType
	}
	return &models.ExternalMediaRecord{
		ExternalID:    r.ID,
		Title:         r.Title,
		Name:          r.Name,
		PosterPath:    PosterURL(r.PosterPath),
		OriginCountry: r.OriginCountry,
		GenreIDs:      r.GenreIDs,
		MediaType:     mediaType,
	}
}

func toExternals(records []*listRecord, defaultType string) []*models.ExternalMediaRecord {
	out := make([]*models.ExternalMediaRecord, 0, len(records))
	for _, r := range records {
		out = append(out, r.toExternal(defaultType))
	}
	return out
}

// Trending retrieves the mixed movie/TV trending list.
func (c *Client) Trending(ctx context.Context, timeWindow string, page int) ([]*models.ExternalMediaRecord, error) {
	if timeWindow == "" {
		timeWindow = "day"
	}
	data, err := c.makeRequest(ctx, fmt.Sprintf("/trending/all/%s", timeWindow), pageParams(page))
	if err != nil {
		return nil, err
	}
	records, err := decodeList(data, "trending")
	if err != nil {
		return nil, err
	}
	return toExternals(records, ""), nil
}

// PopularMovies retrieves the popular movies list.
func (c *Client) PopularMovies(ctx context.Context, page int) ([]*models.ExternalMediaRecord, error) {
	data, err := c.makeRequest(ctx, "/movie/popular", pageParams(page))
	if err != nil {
		return nil, err
	}
	records, err := decodeList(data, "popular movies")
	if err != nil {
		return nil, err
	}
	return toExternals(records, "movie"), nil
}

// PopularTV retrieves the popular TV list.
func (c *Client) PopularTV(ctx context.Context, page int) ([]*models.ExternalMediaRecord, error) {
	data, err := c.makeRequest(ctx, "/tv/popular", pageParams(page))
	if err != nil {
		return nil, err
	}
	records, err := decodeList(data, "popular tv")
	if err != nil {
		return nil, err
	}
	return toExternals(records, "tv"), nil
}

// SearchMulti searches movies, TV and people in one call. Person
// records pass through with media_type "person" and classify as
// Unknown downstream.
func (c *Client) SearchMulti(ctx context.Context, query string, page int) ([]*models.ExternalMediaRecord, error) {
	params := pageParams(page)
	params.Set("query", query)
	data, err := c.makeRequest(ctx, "/search/multi", params)
	if err != nil {
		return nil, err
	}
	records, err := decodeList(data, "search results")
	if err != nil {
		return nil, err
	}
	return toExternals(records, ""), nil
}

// movieDetail and tvDetail are the detail-endpoint shapes; genres and
// countries come back expanded rather than as ID lists.
type movieDetail struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	PosterPath string `json:"poster_path"`
	Genres     []struct {
		ID int `json:"id"`
	} `json:"genres"`
	ProductionCountries []struct {
		ISO3166_1 string `json:"iso_3166_1"`
	} `json:"production_countries"`
}

type tvDetail struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	PosterPath    string   `json:"poster_path"`
	OriginCountry []string `json:"origin_country"`
	Genres        []struct {
		ID int `json:"id"`
	} `json:"genres"`
}

// GetMovie retrieves one movie's detail record.
func (c *Client) GetMovie(ctx context.Context, externalID int) (*models.ExternalMediaRecord, error) {
	data, err := c.makeRequest(ctx, fmt.Sprintf("/movie/%d", externalID), url.Values{})
	if err != nil {
		return nil, err
	}

	var detail movieDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, fmt.Errorf("failed to unmarshal movie %d: %w", externalID, err)
	}

	rec := &models.ExternalMediaRecord{
		ExternalID: detail.ID,
		Title:      detail.Title,
		PosterPath: PosterURL(detail.PosterPath),
		MediaType:  "movie",
	}
	for _, g := range detail.Genres {
		rec.GenreIDs = append(rec.GenreIDs, g.ID)
	}
	for _, pc := range detail.ProductionCountries {
		rec.OriginCountry = append(rec.OriginCountry, pc.ISO3166_1)
	}
	return rec, nil
}

// GetTV retrieves one TV show's detail record.
func (c *Client) GetTV(ctx context.Context, externalID int) (*models.ExternalMediaRecord, error) {
	data, err := c.makeRequest(ctx, fmt.Sprintf("/tv/%d", externalID), url.Values{})
	if err != nil {
		return nil, err
	}

	var detail tvDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tv %d: %w", externalID, err)
	}

	rec := &models.ExternalMediaRecord{
		ExternalID:    detail.ID,
		Name:          detail.Name,
		PosterPath:    PosterURL(detail.PosterPath),
		OriginCountry: detail.OriginCountry,
		MediaType:     "tv",
	}
	for _, g := range detail.Genres {
		rec.GenreIDs = append(rec.GenreIDs, g.ID)
	}
	return rec, nil
}
