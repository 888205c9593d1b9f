package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/apartment-portal/internal/backend"
	"github.com/iliyamo/apartment-portal/internal/listing"
	"github.com/iliyamo/apartment-portal/internal/model"
	"github.com/iliyamo/apartment-portal/internal/store"
)

// ResourceHandler serves list/get/create/update/delete for one backend
// collection. Lists are read through the collection's list store and
// filtered and sorted per request; writes invalidate the store.
type ResourceHandler[T any] struct {
	*Deps
	key        string
	noun       string
	resource   func(*backend.Client) backend.Resource[T]
	list       *store.ListStore[T]
	fields     listing.Fields[T]
	filterable []string
}

func (h *ResourceHandler[T]) fetch(c echo.Context) store.FetchFunc[T] {
	res := h.resource(h.client(c))
	return func(ctx context.Context) ([]T, error) { return res.List(ctx, nil) }
}

// List: GET /  ?<field>=v&search=&sort=&order=
func (h *ResourceHandler[T]) List(c echo.Context) error {
	items, err := h.list.Get(c.Request().Context(), h.key, h.fetch(c))
	if err != nil {
		return h.respond(c, err, "Failed to fetch "+h.key)
	}
	spec := listing.SpecFromQuery(c.QueryParams(), h.filterable...)
	visible, err := listing.Apply(items, h.fields, spec)
	if err != nil {
		return h.respond(c, err, "")
	}
	return ok(c, http.StatusOK, visible, "")
}

// Get: GET /:id
func (h *ResourceHandler[T]) Get(c echo.Context) error {
	item, err := h.resource(h.client(c)).Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.respond(c, err, "Failed to fetch "+h.noun)
	}
	return ok(c, http.StatusOK, item, "")
}

// Create: POST /
func (h *ResourceHandler[T]) Create(c echo.Context) error {
	var in T
	if err := bind(c, &in); err != nil {
		return h.respond(c, err, "")
	}
	out, err := h.resource(h.client(c)).Create(c.Request().Context(), in)
	if err != nil {
		return h.respond(c, err, "Failed to create "+h.noun)
	}
	h.list.Invalidate(h.key)
	return ok(c, http.StatusCreated, out, capitalize(h.noun)+" created successfully")
}

// Update: PUT /:id
func (h *ResourceHandler[T]) Update(c echo.Context) error {
	var in T
	if err := bind(c, &in); err != nil {
		return h.respond(c, err, "")
	}
	out, err := h.resource(h.client(c)).Update(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return h.respond(c, err, "Failed to update "+h.noun)
	}
	h.list.Invalidate(h.key)
	return ok(c, http.StatusOK, out, capitalize(h.noun)+" updated successfully")
}

// Delete: DELETE /:id
func (h *ResourceHandler[T]) Delete(c echo.Context) error {
	if err := h.resource(h.client(c)).Delete(c.Request().Context(), c.Param("id")); err != nil {
		return h.respond(c, err, "Failed to delete "+h.noun)
	}
	h.list.Invalidate(h.key)
	return ok(c, http.StatusOK, nil, capitalize(h.noun)+" deleted successfully")
}

// optTime keeps a missing date a true nil so it sorts first.
func optTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// NewApartmentHandler serves /v1/admin/apartments.
func NewApartmentHandler(d *Deps) *ResourceHandler[model.Apartment] {
	return &ResourceHandler[model.Apartment]{
		Deps:     d,
		key:      "apartments",
		noun:     "apartment",
		resource: (*backend.Client).Apartments,
		list:     d.Apartments,
		fields: listing.Fields[model.Apartment]{
			"apartmentNumber": func(a model.Apartment) any { return a.Number },
			"floor":           func(a model.Apartment) any { return a.Floor },
			"bedrooms":        func(a model.Apartment) any { return a.Bedrooms },
			"rent":            func(a model.Apartment) any { return a.Rent },
			"status":          func(a model.Apartment) any { return a.OccupancyStatus() },
			"createdAt":       func(a model.Apartment) any { return a.CreatedAt },
			listing.SearchField: func(a model.Apartment) any {
				return a.Number + " " + a.Description
			},
		},
		filterable: []string{"status", "floor", "bedrooms"},
	}
}

// NewTenantHandler serves /v1/admin/tenants.
func NewTenantHandler(d *Deps) *ResourceHandler[model.Tenant] {
	return &ResourceHandler[model.Tenant]{
		Deps:     d,
		key:      "tenants",
		noun:     "tenant",
		resource: (*backend.Client).Tenants,
		list:     d.Tenants,
		fields: listing.Fields[model.Tenant]{
			"name":            func(t model.Tenant) any { return t.Name },
			"email":           func(t model.Tenant) any { return t.Email },
			"apartmentNumber": func(t model.Tenant) any { return t.ApartmentNo },
			"status":          func(t model.Tenant) any { return t.ActivityStatus() },
			"leaseStartDate":  func(t model.Tenant) any { return optTime(t.LeaseStart) },
			"leaseEndDate":    func(t model.Tenant) any { return optTime(t.LeaseEnd) },
			listing.SearchField: func(t model.Tenant) any {
				return t.Name + " " + t.Email + " " + t.Phone + " " + t.ApartmentNo
			},
		},
		filterable: []string{"status", "apartmentNumber"},
	}
}

// NewBeverageHandler serves /v1/admin/beverages.
func NewBeverageHandler(d *Deps) *ResourceHandler[model.Beverage] {
	return &ResourceHandler[model.Beverage]{
		Deps:     d,
		key:      "beverages",
		noun:     "beverage",
		resource: (*backend.Client).Beverages,
		list:     d.Beverages,
		fields: listing.Fields[model.Beverage]{
			"name":        func(b model.Beverage) any { return b.Name },
			"category":    func(b model.Beverage) any { return b.Category },
			"price":       func(b model.Beverage) any { return b.Price },
			"stock":       func(b model.Beverage) any { return b.Stock },
			"isAvailable": func(b model.Beverage) any { return b.IsAvailable },
			listing.SearchField: func(b model.Beverage) any {
				return b.Name + " " + b.Category
			},
		},
		filterable: []string{"category", "isAvailable"},
	}
}
