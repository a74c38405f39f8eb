package seed

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mrops-br/catalog-admin/internal/app/service"
	"github.com/mrops-br/catalog-admin/internal/infrastructure/repository/memory"
	"github.com/shopspring/decimal"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const sample = `products:
  - name: Widget
    description: A widget
    price: 9.99
    stock: 5
  - name: Gadget
    price: "1.50"
    stock: 0
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sample), "sample.yaml")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(f.Products) != 2 {
		t.Fatalf("products = %d", len(f.Products))
	}
	if !f.Products[0].Price.Equal(decimal.RequireFromString("9.99")) || f.Products[0].Stock != 5 {
		t.Errorf("first = %+v", f.Products[0])
	}
	if !f.Products[1].Price.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("second price = %s", f.Products[1].Price)
	}

	if _, err := Parse([]byte("products: [oops"), "bad.yaml"); err == nil {
		t.Error("expected parse error")
	}
}

func TestApply_SkipsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(sample), 0644); err != nil {
		t.Fatal(err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	tracer := tracenoop.NewTracerProvider().Tracer("test")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewProductService(memory.NewStore(tracer, logger), tracer, metricnoop.NewMeterProvider().Meter("test"), logger)
	ctx := context.Background()

	created, err := Apply(ctx, f, svc, logger)
	if err != nil || created != 2 {
		t.Fatalf("first Apply = %d, %v", created, err)
	}
	created, err = Apply(ctx, f, svc, logger)
	if err != nil || created != 0 {
		t.Fatalf("second Apply = %d, %v", created, err)
	}

	list, _ := svc.ListProducts(ctx)
	if len(list) != 2 || list[0].Name != "Widget" {
		t.Errorf("products = %+v", list)
	}
}
