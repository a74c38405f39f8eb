// Package seed preloads the reference API with products from a YAML file:
//
//	products:
//	  - name: Widget
//	    description: A widget
//	    price: 9.99
//	    stock: 5
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mrops-br/catalog-admin/internal/app/dto"
	"github.com/mrops-br/catalog-admin/internal/domain"
	"go.yaml.in/yaml/v3"
)

// File is the seed document.
type File struct {
	Products []dto.ProductRequest `yaml:"products"`
}

// ProductCreator is the part of the product service seeding needs.
type ProductCreator interface {
	CreateProduct(ctx context.Context, req *dto.ProductRequest) (*dto.ProductResponse, error)
}

// Load reads and parses a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return Parse(data, path)
}

// Parse parses seed YAML. path is only used in error messages.
func Parse(data []byte, path string) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	return &f, nil
}

// Apply creates every product in f. Products that already exist are
// skipped, so a seed can be applied to a persistent store on each start.
// It returns the number of products created.
func Apply(ctx context.Context, f *File, products ProductCreator, logger *slog.Logger) (int, error) {
	created := 0
	for i := range f.Products {
		req := f.Products[i]
		if _, err := products.CreateProduct(ctx, &req); err != nil {
			if errors.Is(err, domain.ErrDuplicateProduct) {
				logger.DebugContext(ctx, "Seed product already present", slog.String("name", req.Name))
				continue
			}
			return created, fmt.Errorf("seeding product %q: %w", req.Name, err)
		}
		created++
	}

	logger.InfoContext(ctx, "Seed applied",
		slog.Int("created", created),
		slog.Int("total", len(f.Products)),
	)
	return created, nil
}
