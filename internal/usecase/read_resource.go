package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/i2y/fdamcp/internal/domain"
)

const (
	recentEventsWindow = 30 * 24 * time.Hour
	recentResultLimit  = 20
	// popularLabelQueries bounds the upstream requests of the popular labels resource.
	popularLabelQueries = 3
	receiveDateLayout   = "20060102"
)

// DefaultPopularDrugs is the popular drug catalog used when none is configured.
var DefaultPopularDrugs = []string{"aspirin", "ibuprofen", "acetaminophen", "metformin", "lisinopril"}

// ReadResourceUseCase serves the canned openFDA queries exposed as resources.
type ReadResourceUseCase struct {
	client       OpenFDAClient
	popularDrugs []string
	now          func() time.Time
	logger       *slog.Logger
}

// ReadResourceOption customizes a ReadResourceUseCase.
type ReadResourceOption func(*ReadResourceUseCase)

// WithPopularDrugs overrides the popular drug catalog.
func WithPopularDrugs(drugs []string) ReadResourceOption {
	return func(uc *ReadResourceUseCase) {
		if len(drugs) > 0 {
			uc.popularDrugs = drugs
		}
	}
}

// WithClock overrides the time source used for rolling date windows.
func WithClock(now func() time.Time) ReadResourceOption {
	return func(uc *ReadResourceUseCase) { uc.now = now }
}

// NewReadResourceUseCase creates a new ReadResourceUseCase.
func NewReadResourceUseCase(client OpenFDAClient, logger *slog.Logger, opts ...ReadResourceOption) *ReadResourceUseCase {
	uc := &ReadResourceUseCase{
		client:       client,
		popularDrugs: DefaultPopularDrugs,
		now:          time.Now,
		logger:       logger.With("usecase", "ReadResource"),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Execute reads the resource identified by uri and returns its JSON document.
func (uc *ReadResourceUseCase) Execute(ctx context.Context, uri string) (map[string]any, error) {
	log := uc.logger.With(slog.String("uri", uri))
	log.Info("Reading resource")

	res, err := domain.ParseResourceURI(uri)
	if err != nil {
		log.Warn("Rejected unknown resource")
		return nil, err
	}

	var doc map[string]any
	switch res {
	case domain.ResourceRecentDrugEvents:
		doc, err = uc.recentDrugEvents(ctx)
	case domain.ResourcePopularDrugLabels:
		doc, err = uc.popularDrugLabels(ctx)
	case domain.ResourceRecentRecalls:
		doc, err = uc.recentRecalls(ctx)
	default:
		return nil, fmt.Errorf("resource %s has no handler", res)
	}
	if err != nil {
		log.Error("Failed to read resource", slog.Any("error", err))
		return nil, err
	}
	return doc, nil
}

func (uc *ReadResourceUseCase) recentDrugEvents(ctx context.Context) (map[string]any, error) {
	end := uc.now()
	start := end.Add(-recentEventsWindow)
	params := domain.SearchParams{
		Search: fmt.Sprintf("receivedate:[%s TO %s]", start.Format(receiveDateLayout), end.Format(receiveDateLayout)),
		Limit:  recentResultLimit,
	}
	resp, err := uc.client.Search(ctx, domain.EndpointDrugEvent, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent adverse events: %w", err)
	}
	return resp.Raw, nil
}

// popularDrugLabels fetches one label per popular drug, one request at a time. A failed
// drug is logged and left out of the result.
func (uc *ReadResourceUseCase) popularDrugLabels(ctx context.Context) (map[string]any, error) {
	labels := []any{}
	for _, drug := range domain.Truncate(uc.popularDrugs, popularLabelQueries) {
		params := domain.SearchParams{Search: domain.LabelSearch(drug), Limit: 1}
		resp, err := uc.client.Search(ctx, domain.EndpointDrugLabel, params)
		if err != nil {
			uc.logger.Warn("Skipping popular drug label", slog.String("drug", drug), slog.Any("error", domain.PartialFetch(drug, err)))
			continue
		}
		for _, r := range resp.Results {
			labels = append(labels, r)
		}
	}
	return map[string]any{"results": labels}, nil
}

func (uc *ReadResourceUseCase) recentRecalls(ctx context.Context) (map[string]any, error) {
	params := domain.SearchParams{
		Search: "product_type:Drugs",
		Limit:  recentResultLimit,
		Sort:   "recall_initiation_date:desc",
	}
	resp, err := uc.client.Search(ctx, domain.EndpointDrugEnforcement, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent recalls: %w", err)
	}
	return resp.Raw, nil
}
