// Package players searches the site's quick-search result pages for players.
// It is a consumer of the fetch/parse/query pipeline: everything here goes
// through the Fetcher contract and the document extraction interface.
package players

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/transfermarkt-tools/tm-client/pkg/document"
	"github.com/transfermarkt-tools/tm-client/pkg/pagination"
)

// defaultBaseURL is the remote site. searchPath is the quick-search results
// page for players, relative to the base.
const (
	defaultBaseURL = "https://www.transfermarkt.com"
	searchPath     = "/schnellsuche/ergebnis/schnellsuche?query=%s&Spieler_page=%d"
)

// Extraction paths for the search results table. Field paths select one cell
// per result row, in row order, so the columns zip back together by index.
const (
	pathResultsBox  = "//div[@class='box']"
	pathResultsRows = pathResultsBox + "//table[@class='items']//tbody/tr"

	pathNames         = pathResultsRows + "/td[@class='hauptlink']/a"
	pathPositions     = pathResultsRows + "/td[@class='pos']"
	pathClubs         = pathResultsRows + "/td[@class='verein']/a"
	pathAges          = pathResultsRows + "/td[@class='alter']"
	pathNationalities = pathResultsRows + "/td[@class='nat']/img/@title"
	pathMarketValues  = pathResultsRows + "/td[@class='rechts']"
)

// Fetcher is the page-fetch capability the service depends on.
type Fetcher interface {
	Get(ctx context.Context, addr string) ([]byte, error)
}

// Player is one row of a search results page.
type Player struct {
	Name        string `json:"name"`
	Position    string `json:"position"`
	Club        string `json:"club"`
	Age         string `json:"age"`
	Nationality string `json:"nationality"`
	MarketValue string `json:"market_value"`
}

// SearchResult is one page of search results plus its pagination context.
type SearchResult struct {
	Query    string   `json:"query"`
	Page     int      `json:"page"`
	LastPage int      `json:"last_page"`
	Players  []Player `json:"players"`
}

// Service performs player searches.
type Service struct {
	fetcher Fetcher
	baseURL string
	logger  zerolog.Logger
}

// NewService creates a player search service on top of the given fetcher.
func NewService(fetcher Fetcher) *Service {
	return NewServiceAt(defaultBaseURL, fetcher)
}

// NewServiceAt creates a service against a different base address. Tests
// point this at a local double of the site.
func NewServiceAt(baseURL string, fetcher Fetcher) *Service {
	return &Service{
		fetcher: fetcher,
		baseURL: baseURL,
		logger:  log.With().Str("component", "players").Logger(),
	}
}

// Search fetches one page of quick-search results for the query. The results
// table is load-bearing for page validity: a page without it surfaces
// *document.NotFoundError rather than an empty result, so callers can tell a
// broken page from a search with no hits.
func (s *Service) Search(ctx context.Context, query string, page int) (*SearchResult, error) {
	if page < 1 {
		page = 1
	}
	addr := s.baseURL + fmt.Sprintf(searchPath, url.QueryEscape(query), page)

	body, err := s.fetcher.Get(ctx, addr)
	if err != nil {
		return nil, err
	}

	doc, err := document.ParseBytes(body, addr)
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	if err := doc.Require(pathResultsRows); err != nil {
		return nil, err
	}

	lastPage, err := pagination.LastPageNumber(doc, pathResultsBox)
	if err != nil {
		return nil, fmt.Errorf("resolve last page: %w", err)
	}

	result := &SearchResult{
		Query:    query,
		Page:     page,
		LastPage: lastPage,
		Players:  collectPlayers(doc),
	}

	s.logger.Debug().
		Str("query", query).
		Int("page", page).
		Int("last_page", lastPage).
		Int("players", len(result.Players)).
		Msg("Search page extracted")

	return result, nil
}

// collectPlayers zips the per-field column lists back into rows. Optional
// fields may be missing on some rows, so every column is read defensively up
// to the number of name cells.
func collectPlayers(doc document.Queryable) []Player {
	names := doc.QueryList(pathNames)
	positions := doc.QueryList(pathPositions)
	clubs := doc.QueryList(pathClubs)
	ages := doc.QueryList(pathAges)
	nationalities := doc.QueryList(pathNationalities)
	values := doc.QueryList(pathMarketValues)

	players := make([]Player, 0, len(names))
	for i, name := range names {
		players = append(players, Player{
			Name:        name,
			Position:    fieldAt(positions, i),
			Club:        fieldAt(clubs, i),
			Age:         fieldAt(ages, i),
			Nationality: fieldAt(nationalities, i),
			MarketValue: fieldAt(values, i),
		})
	}
	return players
}

func fieldAt(vals []string, i int) string {
	if i < len(vals) {
		return vals[i]
	}
	return ""
}
