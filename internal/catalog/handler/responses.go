package handler

import (
	"time"

	"meshgov/internal/catalog/models"
)

// ProductResponse is the HTTP representation of a data product.
type ProductResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Domain        string    `json:"domain"`
	OwnerID       string    `json:"owner_id"`
	Tags          []string  `json:"tags"`
	Status        string    `json:"status"`
	AccessLevel   string    `json:"access_level"`
	QualityScore  int       `json:"quality_score"`
	LastUpdated   time.Time `json:"last_updated"`
	ConsumerCount int       `json:"consumer_count"`
	DownloadCount int       `json:"download_count"`
}

// ProductListResponse is the HTTP response for GET /products.
type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
}

// DomainListResponse is the HTTP response for GET /domains.
type DomainListResponse struct {
	Domains []string `json:"domains"`
}

// FromProduct converts a domain DataProduct to an HTTP response.
func FromProduct(p *models.DataProduct) ProductResponse {
	return ProductResponse{
		ID:            p.ID.String(),
		Name:          p.Name,
		Description:   p.Description,
		Domain:        p.Domain,
		OwnerID:       p.OwnerID.String(),
		Tags:          p.Tags,
		Status:        string(p.Status),
		AccessLevel:   string(p.AccessLevel),
		QualityScore:  p.QualityScore,
		LastUpdated:   p.LastUpdated,
		ConsumerCount: p.ConsumerCount,
		DownloadCount: p.DownloadCount,
	}
}

// FromProducts converts a product slice, never returning nil so the JSON
// array is always present.
func FromProducts(products []models.DataProduct) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, FromProduct(&products[i]))
	}
	return out
}
