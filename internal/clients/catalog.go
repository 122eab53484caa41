package clients

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
)

// CatalogClient talks to a fakestoreapi compatible catalog service.
type CatalogClient struct{ c *Client }

func NewCatalogClient(c *Client) *CatalogClient { return &CatalogClient{c: c} }

func (cc *CatalogClient) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	var out []catalog.Product
	if err := cc.c.GetJSON(ctx, "/products", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (cc *CatalogClient) ListPage(ctx context.Context, page, limit int) ([]catalog.Product, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var out []catalog.Product
	if err := cc.c.GetJSON(ctx, "/products", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (cc *CatalogClient) GetProduct(ctx context.Context, id int) (catalog.Product, error) {
	var out *catalog.Product
	err := cc.c.GetJSON(ctx, "/products/"+strconv.Itoa(id), nil, &out)

	var upErr *UpstreamError
	if errors.As(err, &upErr) && upErr.StatusCode == http.StatusNotFound {
		return catalog.Product{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Product{}, err
	}
	// fakestoreapi answers unknown ids with 200 and an empty body
	if out == nil || out.ID == 0 {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return *out, nil
}

var _ catalog.Source = (*CatalogClient)(nil)
