package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the catalog module.
type Metrics struct {
	// Products published since start
	ProductsPublished prometheus.Counter

	// Catalog searches served
	Searches prometheus.Counter
}

// New creates a new Metrics instance with all catalog module metrics registered.
func New() *Metrics {
	return &Metrics{
		ProductsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meshgov_catalog_products_published_total",
			Help: "Total data products published",
		}),

		Searches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meshgov_catalog_searches_total",
			Help: "Total catalog search queries served",
		}),
	}
}

// IncrementProductsPublished records a successful publication.
func (m *Metrics) IncrementProductsPublished() {
	if m != nil {
		m.ProductsPublished.Inc()
	}
}

// IncrementSearches records a served search query.
func (m *Metrics) IncrementSearches() {
	if m != nil {
		m.Searches.Inc()
	}
}
