package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/mrops-br/catalog-admin/internal/domain"
	"github.com/mrops-br/catalog-admin/internal/infrastructure/config"
	"github.com/mrops-br/catalog-admin/internal/infrastructure/telemetry"
	"github.com/spf13/viper"
)

type stack struct {
	api    *httptest.Server
	admin  *httptest.Server
	client *http.Client
}

func newStack(t *testing.T) *stack {
	t.Helper()

	cfg, err := config.LoadConfig(viper.New(), "")
	if err != nil {
		t.Fatal(err)
	}
	telem, err := telemetry.NewNoOpTelemetry(&cfg.OTLP, io.Discard)
	if err != nil {
		t.Fatal(err)
	}

	apiServer, closeStore, err := NewAPIServer(context.Background(), cfg, telem)
	if err != nil {
		t.Fatalf("NewAPIServer failed: %v", err)
	}
	t.Cleanup(closeStore)
	api := httptest.NewServer(apiServer.Handler())
	t.Cleanup(api.Close)

	cfg.API.BaseURL = api.URL
	adminServer, err := NewAdminServer(cfg, telem)
	if err != nil {
		t.Fatalf("NewAdminServer failed: %v", err)
	}
	admin := httptest.NewServer(adminServer.Handler())
	t.Cleanup(admin.Close)

	jar, _ := cookiejar.New(nil)
	return &stack{api: api, admin: admin, client: &http.Client{Jar: jar}}
}

// post submits a form and returns the page the redirect lands on.
func (s *stack) post(t *testing.T, path string, form url.Values) string {
	t.Helper()
	resp, err := s.client.PostForm(s.admin.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.Request.URL.Path != "/" {
		t.Fatalf("POST %s landed on %s, want /", path, resp.Request.URL.Path)
	}
	body, _ := io.ReadAll(resp.Body)
	return string(body)
}

func (s *stack) get(t *testing.T, path string) string {
	t.Helper()
	resp, err := s.client.Get(s.admin.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s status = %d", path, resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	return string(body)
}

func mustContain(t *testing.T, page string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(page, want) {
			t.Errorf("page is missing %q", want)
		}
	}
}

func TestAdminAgainstReferenceAPI(t *testing.T) {
	s := newStack(t)

	page := s.get(t, "/")
	mustContain(t, page, "Product Management", "No products found.")

	page = s.post(t, "/products", url.Values{"name": {"Widget"}, "description": {"A widget"}, "price": {"9.99"}, "stock": {"2"}})
	mustContain(t, page, `id="product-1"`, "Stock: 2", "$9.99")

	page = s.post(t, "/cart/items", url.Values{"product_id": {"1"}})
	mustContain(t, page, "Shopping Cart", "Stock: 1", `id="cart-item-1"`)

	page = s.post(t, "/cart/items/1", url.Values{"quantity": {"2"}})
	mustContain(t, page, "Stock: 0", "$19.98", "No stock available")

	page = s.post(t, "/cart/items/1", url.Values{"quantity": {"3"}})
	mustContain(t, page, "Not enough stock available.")
	page = s.post(t, "/notice/dismiss", nil)
	if strings.Contains(page, "Not enough stock available.") {
		t.Error("notice still shown after dismiss")
	}

	page = s.post(t, "/cart/items/1", url.Values{"quantity": {"0"}})
	mustContain(t, page, "Stock: 2")
	if strings.Contains(page, "Shopping Cart") {
		t.Error("empty cart should not render")
	}

	// the server agrees with what the page shows
	resp, err := http.Get(s.api.URL + "/products/1")
	if err != nil {
		t.Fatal(err)
	}
	var p domain.Product
	_ = json.NewDecoder(resp.Body).Decode(&p)
	resp.Body.Close()
	if p.Stock != 2 {
		t.Errorf("server stock = %d, want 2", p.Stock)
	}
}

func TestAdminSurfacesServerAndFormErrors(t *testing.T) {
	s := newStack(t)
	s.get(t, "/")

	s.post(t, "/dialog/add", nil)
	page := s.post(t, "/products", url.Values{"name": {"Widget"}, "price": {"abc"}, "stock": {"1"}})
	mustContain(t, page, "Price must be a number.", "Add Product")

	s.post(t, "/notice/dismiss", nil)
	s.post(t, "/products", url.Values{"name": {"Widget"}, "price": {"1"}, "stock": {"1"}})
	page = s.post(t, "/products", url.Values{"name": {"Widget"}, "price": {"2"}, "stock": {"1"}})
	mustContain(t, page, "Product already registered")

	s.post(t, "/notice/dismiss", nil)
	page = s.post(t, "/products", url.Values{"name": {"Widget"}, "price": {"0"}, "stock": {"1"}})
	mustContain(t, page, "product price must be positive")
}

func TestAdminSearchAndDelete(t *testing.T) {
	s := newStack(t)
	s.get(t, "/")
	s.post(t, "/products", url.Values{"name": {"Widget"}, "price": {"1"}, "stock": {"1"}})
	s.post(t, "/products", url.Values{"name": {"Gadget"}, "price": {"1"}, "stock": {"1"}})

	page := s.get(t, "/search?q=gad")
	mustContain(t, page, `id="product-2"`)
	if strings.Contains(page, `id="product-1"`) {
		t.Error("search should hide Widget")
	}

	s.get(t, "/search?q=")
	page = s.post(t, "/products/1/delete", nil)
	mustContain(t, page, "Delete Product")
	page = s.post(t, "/products/1/remove", nil)
	if strings.Contains(page, `id="product-1"`) {
		t.Error("deleted product still listed")
	}

	resp, err := http.Get(s.api.URL + "/products/1")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("deleted product status = %d, want 404", resp.StatusCode)
	}
}

func TestAdminHealthAndMetrics(t *testing.T) {
	s := newStack(t)
	s.get(t, "/")

	for _, path := range []string{"/health", "/metrics"} {
		resp, err := http.Get(s.admin.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d", path, resp.StatusCode)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	buildVersion, buildCommit, buildDate = "1.2.3", "abc", "today"
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); !strings.Contains(got, "catalog-admin version 1.2.3 (commit: abc") {
		t.Errorf("output = %q", got)
	}
}

func TestAdminKeepsTypedValuesAfterRejectedSubmit(t *testing.T) {
	s := newStack(t)
	s.get(t, "/")

	s.post(t, "/dialog/add", nil)
	page := s.post(t, "/products", url.Values{"name": {"Gizmo"}, "description": {"Shiny"}, "price": {"0"}, "stock": {"2"}})
	mustContain(t, page, "product price must be positive", "Add Product", `value="Gizmo"`, "Shiny")

	s.post(t, "/notice/dismiss", nil)
	page = s.post(t, "/products", url.Values{"name": {"Gizmo"}, "description": {"Shiny"}, "price": {"abc"}, "stock": {"2"}})
	mustContain(t, page, "Price must be a number.", `value="abc"`)

	s.post(t, "/notice/dismiss", nil)
	s.post(t, "/products", url.Values{"name": {"Gizmo"}, "price": {"1"}, "stock": {"1"}})
	page = s.post(t, "/dialog/add", nil)
	mustContain(t, page, "Add Product")
	if strings.Contains(page, `value="Gizmo"`) {
		t.Error("reopened add dialog shows an old draft")
	}
	s.post(t, "/products", url.Values{"name": {"Widget"}, "price": {"1"}, "stock": {"1"}})

	s.post(t, "/notice/dismiss", nil)
	s.post(t, "/products/2/edit", nil)
	page = s.post(t, "/products/2", url.Values{"name": {"Gizmo"}, "description": {"edited text"}, "price": {"1"}, "stock": {"1"}})
	mustContain(t, page, "Product already registered", "Edit Product", `value="Gizmo"`, "edited text")
}
