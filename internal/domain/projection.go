package domain

import (
	"encoding/json"
)

// Placeholders for fields missing from upstream documents.
const (
	Unknown      = "Unknown"
	NotAvailable = "Not available"
)

// SearchResponse is a decoded openFDA search response.
type SearchResponse struct {
	// Total is meta.results.total, 0 when absent.
	Total int
	// Results holds the result documents in upstream order.
	Results []map[string]any
	// Raw is the complete response document.
	Raw map[string]any
}

// EventDrug is one drug entry of a projected adverse event.
type EventDrug struct {
	Name       string `json:"name"`
	Indication string `json:"indication"`
}

// ProjectedEvent is the reduced shape of an adverse-event report.
type ProjectedEvent struct {
	ReportID    string      `json:"report_id"`
	ReceiveDate string      `json:"receive_date"`
	Serious     string      `json:"serious"`
	PatientAge  string      `json:"patient_age"`
	PatientSex  string      `json:"patient_sex"`
	Reactions   []string    `json:"reactions"`
	Drugs       []EventDrug `json:"drugs"`
}

// ProjectedLabel is the reduced shape of a drug label.
type ProjectedLabel struct {
	BrandNames              []string `json:"brand_names"`
	GenericNames            []string `json:"generic_names"`
	Manufacturer            []string `json:"manufacturer"`
	SubstanceNames          []string `json:"substance_names"`
	ProductType             []string `json:"product_type"`
	Route                   []string `json:"route"`
	IndicationsAndUsage     []string `json:"indications_and_usage"`
	Warnings                []string `json:"warnings"`
	AdverseReactions        []string `json:"adverse_reactions"`
	DosageAndAdministration []string `json:"dosage_and_administration"`
}

// ProjectedRecall is the reduced shape of an enforcement report.
type ProjectedRecall struct {
	RecallNumber         string `json:"recall_number"`
	ProductDescription   string `json:"product_description"`
	ReasonForRecall      string `json:"reason_for_recall"`
	Classification       string `json:"classification"`
	Status               string `json:"status"`
	RecallInitiationDate string `json:"recall_initiation_date"`
	FirmName             string `json:"firm_name"`
	DistributionPattern  string `json:"distribution_pattern"`
}

// EventsResult is the output envelope of search_drug_events.
type EventsResult struct {
	TotalResults int              `json:"total_results"`
	Events       []ProjectedEvent `json:"events"`
}

// LabelsResult is the output envelope of get_drug_label_info.
type LabelsResult struct {
	TotalResults int              `json:"total_results"`
	Labels       []ProjectedLabel `json:"labels"`
}

// RecallsResult is the output envelope of search_drug_recalls.
type RecallsResult struct {
	TotalResults int               `json:"total_results"`
	Recalls      []ProjectedRecall `json:"recalls"`
}

// ProjectEvent reduces an adverse-event document.
func ProjectEvent(doc map[string]any) ProjectedEvent {
	patient := object(doc, "patient")
	ev := ProjectedEvent{
		ReportID:    scalar(doc, "safetyreportid"),
		ReceiveDate: scalar(doc, "receivedate"),
		Serious:     scalar(doc, "serious"),
		PatientAge:  scalar(patient, "patientonsetage"),
		PatientSex:  scalar(patient, "patientsex"),
		Reactions:   []string{},
		Drugs:       []EventDrug{},
	}
	for _, r := range objects(patient, "reaction") {
		ev.Reactions = append(ev.Reactions, scalar(r, "reactionmeddrapt"))
	}
	for _, d := range objects(patient, "drug") {
		ev.Drugs = append(ev.Drugs, EventDrug{
			Name:       scalar(d, "medicinalproduct"),
			Indication: scalar(d, "drugindication"),
		})
	}
	return ev
}

// ProjectLabel reduces a drug-label document.
func ProjectLabel(doc map[string]any) ProjectedLabel {
	openfda := object(doc, "openfda")
	notAvailable := []string{NotAvailable}
	return ProjectedLabel{
		BrandNames:              stringList(openfda, "brand_name", nil),
		GenericNames:            stringList(openfda, "generic_name", nil),
		Manufacturer:            stringList(openfda, "manufacturer_name", nil),
		SubstanceNames:          stringList(openfda, "substance_name", nil),
		ProductType:             stringList(openfda, "product_type", nil),
		Route:                   stringList(openfda, "route", nil),
		IndicationsAndUsage:     stringList(doc, "indications_and_usage", notAvailable),
		Warnings:                stringList(doc, "warnings", notAvailable),
		AdverseReactions:        stringList(doc, "adverse_reactions", notAvailable),
		DosageAndAdministration: stringList(doc, "dosage_and_administration", notAvailable),
	}
}

// ProjectRecall reduces an enforcement document.
func ProjectRecall(doc map[string]any) ProjectedRecall {
	return ProjectedRecall{
		RecallNumber:         scalar(doc, "recall_number"),
		ProductDescription:   scalar(doc, "product_description"),
		ReasonForRecall:      scalar(doc, "reason_for_recall"),
		Classification:       scalar(doc, "classification"),
		Status:               scalar(doc, "status"),
		RecallInitiationDate: scalar(doc, "recall_initiation_date"),
		FirmName:             scalar(doc, "recalling_firm"),
		DistributionPattern:  scalar(doc, "distribution_pattern"),
	}
}

// scalar renders doc[key] as text. Numbers keep their JSON form; absent or null is Unknown.
func scalar(doc map[string]any, key string) string {
	v, ok := doc[key]
	if !ok || v == nil {
		return Unknown
	}
	return text(v)
}

func text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return Unknown
		}
		return string(b)
	}
}

func object(doc map[string]any, key string) map[string]any {
	if m, ok := doc[key].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func objects(doc map[string]any, key string) []map[string]any {
	items, _ := doc[key].([]any)
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// stringList renders doc[key] as a list of text. A scalar becomes a one-element list.
// Absent or null yields a copy of def, or an empty list when def is nil.
func stringList(doc map[string]any, key string, def []string) []string {
	v, ok := doc[key]
	if !ok || v == nil {
		return append([]string{}, def...)
	}
	items, isList := v.([]any)
	if !isList {
		return []string{text(v)}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, text(it))
	}
	return out
}
