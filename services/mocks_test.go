package services_test

import (
	"context"
	"io"

	"civicportal-be/gateway"
	"civicportal-be/geocoding"
	"civicportal-be/models"
)

type mockIssueGateway struct {
	listFn   func(ctx context.Context, sort string) ([]models.Issue, error)
	filterFn func(ctx context.Context, pred gateway.Predicate, sort string) ([]models.Issue, error)
	getFn    func(ctx context.Context, id string) (*models.Issue, error)
	createFn func(ctx context.Context, payload models.IssuePayload) (*models.Issue, error)
	updateFn func(ctx context.Context, id string, patch models.IssuePatch) (*models.Issue, error)
}

func (m *mockIssueGateway) List(ctx context.Context, sort string) ([]models.Issue, error) {
	if m.listFn != nil {
		return m.listFn(ctx, sort)
	}
	return nil, nil
}

func (m *mockIssueGateway) Filter(ctx context.Context, pred gateway.Predicate, sort string) ([]models.Issue, error) {
	if m.filterFn != nil {
		return m.filterFn(ctx, pred, sort)
	}
	return nil, nil
}

func (m *mockIssueGateway) Get(ctx context.Context, id string) (*models.Issue, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, gateway.ErrNotFound
}

func (m *mockIssueGateway) Create(ctx context.Context, payload models.IssuePayload) (*models.Issue, error) {
	if m.createFn != nil {
		return m.createFn(ctx, payload)
	}
	return &models.Issue{}, nil
}

func (m *mockIssueGateway) Update(ctx context.Context, id string, patch models.IssuePatch) (*models.Issue, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, patch)
	}
	return &models.Issue{}, nil
}

type mockGeocoder struct {
	geocodeFn func(ctx context.Context, address string) (*geocoding.Result, error)
}

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (*geocoding.Result, error) {
	return m.geocodeFn(ctx, address)
}

type mockUploader struct {
	uploadFn func(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
}

func (m *mockUploader) Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	return m.uploadFn(ctx, filename, contentType, r)
}

func (m *mockUploader) Open(context.Context, string) (*gateway.StoredFile, error) {
	return nil, gateway.ErrNotFound
}

func ptr[T any](v T) *T {
	return &v
}
