package domain_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/fdamcp/internal/domain"
)

// decode mirrors how the openFDA client decodes documents.
func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	require.NoError(t, dec.Decode(&doc))
	return doc
}

func TestProjectEvent(t *testing.T) {
	assert := assert.New(t)

	doc := decode(t, `{
		"safetyreportid": "10003300",
		"receivedate": "20140312",
		"serious": "1",
		"patient": {
			"patientonsetage": 56,
			"reaction": [{"reactionmeddrapt": "Nausea"}, {}],
			"drug": [{"medicinalproduct": "ASPIRIN", "drugindication": "PAIN"}, {"medicinalproduct": "LIPITOR"}]
		}
	}`)

	ev := domain.ProjectEvent(doc)
	assert.Equal("10003300", ev.ReportID)
	assert.Equal("20140312", ev.ReceiveDate)
	assert.Equal("1", ev.Serious)
	assert.Equal("56", ev.PatientAge)
	assert.Equal(domain.Unknown, ev.PatientSex)
	assert.Equal([]string{"Nausea", domain.Unknown}, ev.Reactions)
	assert.Equal([]domain.EventDrug{
		{Name: "ASPIRIN", Indication: "PAIN"},
		{Name: "LIPITOR", Indication: domain.Unknown},
	}, ev.Drugs)
}

func TestProjectEvent_EmptyDocument(t *testing.T) {
	ev := domain.ProjectEvent(map[string]any{})

	assert.Equal(t, domain.ProjectedEvent{
		ReportID:    domain.Unknown,
		ReceiveDate: domain.Unknown,
		Serious:     domain.Unknown,
		PatientAge:  domain.Unknown,
		PatientSex:  domain.Unknown,
		Reactions:   []string{},
		Drugs:       []domain.EventDrug{},
	}, ev)

	b, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"reactions":[]`)
}

func TestProjectLabel(t *testing.T) {
	assert := assert.New(t)

	doc := decode(t, `{
		"openfda": {"brand_name": ["Bayer Aspirin"], "route": ["ORAL"]},
		"warnings": ["Reye's syndrome"]
	}`)

	label := domain.ProjectLabel(doc)
	assert.Equal([]string{"Bayer Aspirin"}, label.BrandNames)
	assert.Equal([]string{"ORAL"}, label.Route)
	assert.Equal([]string{}, label.GenericNames)
	assert.Equal([]string{}, label.Manufacturer)
	assert.Equal([]string{}, label.SubstanceNames)
	assert.Equal([]string{}, label.ProductType)
	assert.Equal([]string{"Reye's syndrome"}, label.Warnings)
	assert.Equal([]string{domain.NotAvailable}, label.IndicationsAndUsage)
	assert.Equal([]string{domain.NotAvailable}, label.AdverseReactions)
	assert.Equal([]string{domain.NotAvailable}, label.DosageAndAdministration)

	b, err := json.Marshal(domain.ProjectLabel(map[string]any{}))
	require.NoError(t, err)
	assert.Contains(string(b), `"brand_names":[]`)
	assert.NotContains(string(b), "null")
}

func TestProjectRecall(t *testing.T) {
	assert := assert.New(t)

	doc := decode(t, `{
		"recall_number": "D-0001-2024",
		"product_description": "Valsartan tablets",
		"classification": "Class II",
		"recalling_firm": "Acme Pharma",
		"status": null
	}`)

	r := domain.ProjectRecall(doc)
	assert.Equal("D-0001-2024", r.RecallNumber)
	assert.Equal("Valsartan tablets", r.ProductDescription)
	assert.Equal("Class II", r.Classification)
	assert.Equal("Acme Pharma", r.FirmName)
	assert.Equal(domain.Unknown, r.Status)
	assert.Equal(domain.Unknown, r.ReasonForRecall)
	assert.Equal(domain.Unknown, r.RecallInitiationDate)
	assert.Equal(domain.Unknown, r.DistributionPattern)
}
