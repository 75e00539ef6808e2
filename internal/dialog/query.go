package dialog

import (
	"fmt"

	"github.com/Kirill-Eltsov/JobHunter/internal/model"
)

// ErrIncompleteCriteria is returned when a query is requested before the
// interview collected a position and a resolved city.
var ErrIncompleteCriteria = fmt.Errorf("search criteria incomplete")

// BuildQuery finalises the session's accumulated answers into a search
// query. A session can only reach the execution step with both a position
// and a non-empty city ID, so ErrIncompleteCriteria indicates a caller bug
// (e.g. subscribing before ever searching).
func BuildQuery(s *Session) (model.SearchQuery, error) {
	if s.Position == "" || s.CityID == "" {
		return model.SearchQuery{}, ErrIncompleteCriteria
	}

	from, to := ParseSalaryRange(s.SalaryLabel)

	perPage := s.ResultCount
	if perPage <= 0 {
		perPage = 1
	}

	return model.SearchQuery{
		Text:       s.Position,
		AreaID:     s.CityID,
		SalaryFrom: from,
		SalaryTo:   to,
		PerPage:    perPage,
	}, nil
}
