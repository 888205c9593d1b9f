package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/iliyamo/apartment-portal/internal/model"
)

// Resource is the list/get/create/update/delete surface shared by every
// backend collection.
type Resource[T any] struct {
	c      *Client
	path   string
	noun   string // singular, for messages
	plural string
}

func newResource[T any](c *Client, path, noun, plural string) Resource[T] {
	return Resource[T]{c: c, path: path, noun: noun, plural: plural}
}

// List fetches the whole collection.
func (r Resource[T]) List(ctx context.Context, query url.Values) ([]T, error) {
	return r.ListAt(ctx, "", query)
}

// ListAt fetches a scoped sub-collection such as "/my-requests".
func (r Resource[T]) ListAt(ctx context.Context, suffix string, query url.Values) ([]T, error) {
	var out []T
	if err := r.c.do(ctx, http.MethodGet, r.path+suffix, query, nil, &out, "Failed to fetch "+r.plural); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one record.
func (r Resource[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	err := r.c.do(ctx, http.MethodGet, r.path+"/"+url.PathEscape(id), nil, nil, &out, "Failed to fetch "+r.noun)
	return out, err
}

// Create posts a new record and returns what the backend stored.
func (r Resource[T]) Create(ctx context.Context, in any) (T, error) {
	var out T
	err := r.c.do(ctx, http.MethodPost, r.path, nil, in, &out, "Failed to create "+r.noun)
	return out, err
}

// Update replaces a record and returns what the backend stored.
func (r Resource[T]) Update(ctx context.Context, id string, in any) (T, error) {
	var out T
	err := r.c.do(ctx, http.MethodPut, r.path+"/"+url.PathEscape(id), nil, in, &out, "Failed to update "+r.noun)
	return out, err
}

// Delete removes a record.
func (r Resource[T]) Delete(ctx context.Context, id string) error {
	return r.c.do(ctx, http.MethodDelete, r.path+"/"+url.PathEscape(id), nil, nil, nil, "Failed to delete "+r.noun)
}

// Apartments is the apartment collection.
func (c *Client) Apartments() Resource[model.Apartment] {
	return newResource[model.Apartment](c, "/apartments", "apartment", "apartments")
}

// Tenants is the tenant collection.
func (c *Client) Tenants() Resource[model.Tenant] {
	return newResource[model.Tenant](c, "/tenants", "tenant", "tenants")
}

// Beverages is the beverage stock.
func (c *Client) Beverages() Resource[model.Beverage] {
	return newResource[model.Beverage](c, "/beverages", "beverage", "beverages")
}

// MaintenanceRequests is the repair ticket collection.
func (c *Client) MaintenanceRequests() Resource[model.MaintenanceRequest] {
	return newResource[model.MaintenanceRequest](c, "/maintenance-requests", "maintenance request", "maintenance requests")
}

// LeaveRequests is the worker leave collection.
func (c *Client) LeaveRequests() Resource[model.LeaveRequest] {
	return newResource[model.LeaveRequest](c, "/leave-requests", "leave request", "leave requests")
}
