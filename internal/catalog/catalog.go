// internal/catalog/catalog.go
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/adb1146/itc-conference-app-sub002/internal/common/logger"
	"github.com/adb1146/itc-conference-app-sub002/internal/models"
)

var ErrSearchFailed = errors.New("CATALOG_SEARCH_FAILED")

// Searcher finds conference sessions matching the attendee's interests.
type Searcher interface {
	Search(ctx context.Context, interests []string, tracks []string, limit int) ([]models.ConferenceSession, error)
}

// Catalog queries the indexed conference session export.
type Catalog struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func New(client *elasticsearch.Client, index string, log logger.Logger) *Catalog {
	return &Catalog{
		client: client,
		index:  index,
		logger: log.With(map[string]interface{}{
			"component": "session-catalog",
		}),
	}
}

// Search runs a relevance query over session titles, descriptions, tags, and
// tracks. With no interests it falls back to a match_all so guests still get
// a populated agenda.
func (c *Catalog) Search(ctx context.Context, interests []string, tracks []string, limit int) ([]models.ConferenceSession, error) {
	query := buildSessionQuery(interests, tracks)
	body, _ := json.Marshal(query)

	size := limit
	req := esapi.SearchRequest{
		Index: []string{c.index},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchFailed, res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source models.ConferenceSession `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrSearchFailed, err)
	}

	sessions := make([]models.ConferenceSession, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		sessions = append(sessions, hit.Source)
	}

	c.logger.Debug("catalog search completed", map[string]interface{}{
		"interests": interests,
		"tracks":    tracks,
		"hits":      len(sessions),
	})

	return sessions, nil
}

func buildSessionQuery(interests []string, tracks []string) map[string]interface{} {
	shouldClauses := []interface{}{}
	filterClauses := []interface{}{}

	if len(interests) > 0 {
		shouldClauses = append(shouldClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  strings.Join(interests, " "),
				"fields": []string{"title^3", "tags^2", "description", "track"},
				"type":   "best_fields",
			},
		})
	}

	if len(tracks) > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"terms": map[string]interface{}{"track": tracks},
		})
	}

	if len(shouldClauses) == 0 && len(filterClauses) == 0 {
		return map[string]interface{}{
			"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		}
	}

	boolQuery := map[string]interface{}{}
	if len(shouldClauses) > 0 {
		boolQuery["should"] = shouldClauses
		boolQuery["minimum_should_match"] = 1
	}
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
		if len(shouldClauses) == 0 {
			delete(boolQuery, "minimum_should_match")
		}
	}

	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
	}
}
