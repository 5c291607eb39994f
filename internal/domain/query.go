package domain

import (
	"fmt"
	"strings"
)

// Limits per tool. Max* is the advertised schema bound, *RequestCap the ceiling sent upstream.
const (
	DefaultEventLimit = 10
	MaxEventLimit     = 1000
	EventRequestCap   = 100

	DefaultLabelLimit = 5
	MaxLabelLimit     = 100
	LabelRequestCap   = 50

	DefaultRecallLimit = 10
	MaxRecallLimit     = 100
	RecallRequestCap   = 100
)

const dateRangeSeparator = "_to_"

// SearchParams are the query string parameters of one openFDA search request.
type SearchParams struct {
	Search string
	Limit  int
	Sort   string
}

// EventQuery is the argument set of search_drug_events.
type EventQuery struct {
	DrugName  string `json:"drug_name"`
	Limit     int    `json:"limit,omitempty"`
	DateRange string `json:"date_range,omitempty"`
}

// RequestedLimit returns the caller's limit or the default when unset.
func (q EventQuery) RequestedLimit() int {
	return limitOrDefault(q.Limit, DefaultEventLimit)
}

// SearchParams builds the adverse-event search request.
func (q EventQuery) SearchParams() (SearchParams, error) {
	search := fmt.Sprintf(`patient.drug.medicinalproduct:"%s"`, q.DrugName)
	if q.DateRange != "" {
		clause, err := ReceiveDateClause(q.DateRange)
		if err != nil {
			return SearchParams{}, err
		}
		search += " AND " + clause
	}
	return SearchParams{Search: search, Limit: min(q.RequestedLimit(), EventRequestCap)}, nil
}

// ReceiveDateClause converts "YYYYMMDD_to_YYYYMMDD" into "receivedate:[YYYYMMDD TO YYYYMMDD]".
func ReceiveDateClause(dateRange string) (string, error) {
	start, end, ok := strings.Cut(dateRange, dateRangeSeparator)
	if !ok || start == "" || end == "" {
		return "", Validation("invalid_date_range", fmt.Sprintf("date_range %q must have the form YYYYMMDD_to_YYYYMMDD", dateRange))
	}
	return fmt.Sprintf("receivedate:[%s TO %s]", start, end), nil
}

// LabelQuery is the argument set of get_drug_label_info.
type LabelQuery struct {
	DrugName string `json:"drug_name"`
	Limit    int    `json:"limit,omitempty"`
}

// RequestedLimit returns the caller's limit or the default when unset.
func (q LabelQuery) RequestedLimit() int {
	return limitOrDefault(q.Limit, DefaultLabelLimit)
}

// SearchParams builds the drug-label search request.
func (q LabelQuery) SearchParams() SearchParams {
	return SearchParams{Search: LabelSearch(q.DrugName), Limit: min(q.RequestedLimit(), LabelRequestCap)}
}

// LabelSearch matches a drug by brand or generic name.
func LabelSearch(drugName string) string {
	return fmt.Sprintf(`openfda.brand_name:"%s" OR openfda.generic_name:"%s"`, drugName, drugName)
}

// RecallQuery is the argument set of search_drug_recalls.
type RecallQuery struct {
	DrugName       string `json:"drug_name"`
	Classification string `json:"classification,omitempty"`
	Limit          int    `json:"limit,omitempty"`
}

// RequestedLimit returns the caller's limit or the default when unset.
func (q RecallQuery) RequestedLimit() int {
	return limitOrDefault(q.Limit, DefaultRecallLimit)
}

// SearchParams builds the enforcement search request.
func (q RecallQuery) SearchParams() SearchParams {
	parts := []string{fmt.Sprintf(`product_description:"%s"`, q.DrugName)}
	if q.Classification != "" {
		parts = append(parts, fmt.Sprintf(`classification:"%s"`, q.Classification))
	}
	return SearchParams{Search: strings.Join(parts, " AND "), Limit: min(q.RequestedLimit(), RecallRequestCap)}
}

func limitOrDefault(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}

// Truncate returns at most n leading items.
func Truncate[T any](items []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(items) > n {
		return items[:n]
	}
	return items
}
