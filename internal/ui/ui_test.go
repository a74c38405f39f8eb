package ui

import (
	"bytes"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/mrops-br/catalog-admin/internal/app/admin"
	"github.com/mrops-br/catalog-admin/internal/domain"
	"github.com/shopspring/decimal"
)

func TestParseProductForm(t *testing.T) {
	tests := []struct {
		name    string
		form    url.Values
		price   string
		stock   int
		wantErr error
	}{
		{"valid", url.Values{"name": {" Widget "}, "description": {"d"}, "price": {"9.99"}, "stock": {"5"}}, "9.99", 5, nil},
		{"dollar sign", url.Values{"name": {"W"}, "price": {"$3"}, "stock": {"0"}}, "3", 0, nil},
		{"bad price", url.Values{"name": {"W"}, "price": {"abc"}, "stock": {"1"}}, "", 0, ErrInvalidPrice},
		{"empty price", url.Values{"name": {"W"}, "stock": {"1"}}, "", 0, ErrInvalidPrice},
		{"negative price", url.Values{"name": {"W"}, "price": {"-1"}, "stock": {"1"}}, "", 0, ErrInvalidPrice},
		{"fractional stock", url.Values{"name": {"W"}, "price": {"1"}, "stock": {"1.5"}}, "", 0, ErrInvalidStock},
		{"negative stock", url.Values{"name": {"W"}, "price": {"1"}, "stock": {"-2"}}, "", 0, ErrInvalidStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseProductForm(tt.form)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if !p.Price.Equal(decimal.RequireFromString(tt.price)) || p.Stock != tt.stock {
				t.Errorf("got price=%s stock=%d", p.Price, p.Stock)
			}
			if p.Name != strings.TrimSpace(tt.form.Get("name")) {
				t.Errorf("name = %q", p.Name)
			}
		})
	}
}

func TestParseQuantityAndID(t *testing.T) {
	if q, err := ParseQuantity(url.Values{"quantity": {"0"}}); err != nil || q != 0 {
		t.Errorf("ParseQuantity(0) = %d, %v", q, err)
	}
	if _, err := ParseQuantity(url.Values{"quantity": {"x"}}); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("ParseQuantity(x) err = %v", err)
	}
	if id, err := ParseID("7"); err != nil || id != 7 {
		t.Errorf("ParseID(7) = %d, %v", id, err)
	}
	for _, raw := range []string{"", "0", "-3", "seven"} {
		if _, err := ParseID(raw); !errors.Is(err, ErrInvalidID) {
			t.Errorf("ParseID(%q) err = %v", raw, err)
		}
	}
}

func testState() admin.State {
	widget := domain.Product{ID: 1, Name: "Widget", Description: "A widget", Price: decimal.RequireFromString("9.99"), Stock: 3}
	gadget := domain.Product{ID: 2, Name: "Gadget", Price: decimal.RequireFromString("1.50"), Stock: 0}
	return admin.State{
		Products:       []domain.Product{widget, gadget},
		ProductsLoaded: true,
		Cart: domain.Cart{Items: []domain.CartItem{
			{ID: 10, Product: widget, Quantity: 2},
			{ID: 11, Product: gadget, Quantity: 1},
		}},
		Dialog:  domain.NoDialog{},
		Pending: map[string]bool{admin.PendingCartItem(10): true},
	}
}

func TestNewPage(t *testing.T) {
	page := NewPage(testState())

	if len(page.Products) != 2 {
		t.Fatalf("products = %d", len(page.Products))
	}
	if !page.Products[0].CanAddToCart || page.Products[1].CanAddToCart {
		t.Error("CanAddToCart should follow displayed stock")
	}
	if page.Products[0].PriceText != "$9.99" {
		t.Errorf("PriceText = %s", page.Products[0].PriceText)
	}

	if page.Cart == nil || len(page.Cart.Lines) != 2 {
		t.Fatalf("cart = %+v", page.Cart)
	}
	if page.Cart.Total != "$21.48" {
		t.Errorf("Total = %s, want $21.48", page.Cart.Total)
	}
	first, second := page.Cart.Lines[0], page.Cart.Lines[1]
	if first.LineTotal != "$19.98" || !first.Pending || !first.CanIncrease {
		t.Errorf("first line = %+v", first)
	}
	if second.CanIncrease || second.Pending {
		t.Errorf("second line = %+v", second)
	}
	if first.Increment() != 3 || first.Decrement() != 1 {
		t.Error("increment/decrement quantities are wrong")
	}
	if page.Dialog.Kind != "" {
		t.Errorf("dialog kind = %q", page.Dialog.Kind)
	}
}

func TestNewPage_SearchAndEmptyCart(t *testing.T) {
	s := testState()
	s.Search = "GAD"
	s.Cart = domain.Cart{}
	s.Dialog = domain.EditDialog{Product: s.Products[1]}
	s.Pending = map[string]bool{admin.PendingEditProduct(2): true}

	page := NewPage(s)
	if len(page.Products) != 1 || page.Products[0].ID != 2 {
		t.Errorf("products = %+v", page.Products)
	}
	if page.Cart != nil {
		t.Error("empty cart should not render")
	}
	if page.Dialog.Kind != "edit" || page.Dialog.Product.ID != 2 || !page.Dialog.Pending {
		t.Errorf("dialog = %+v", page.Dialog)
	}
}

func TestRender(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}

	s := testState()
	s.Dialog = domain.DeleteDialog{Product: s.Products[0]}
	s.Notice = &admin.Notice{Action: "add_product", Message: "name required"}

	var buf bytes.Buffer
	if err := r.Render(&buf, NewPage(s)); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		"Product Management",
		`id="product-1"`,
		"Stock: 3",
		"$9.99",
		"Shopping Cart",
		"$21.48",
		`action="/cart/items/10"`,
		"Delete Product",
		`action="/products/1/remove"`,
		"name required",
		"No stock available",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered page is missing %q", want)
		}
	}
}

func TestRender_EscapesProductText(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatal(err)
	}
	s := admin.State{
		Products: []domain.Product{{ID: 1, Name: "<script>alert(1)</script>", Price: decimal.NewFromInt(1), Stock: 1}},
		Dialog:   domain.NoDialog{},
		Pending:  map[string]bool{},
	}

	var buf bytes.Buffer
	if err := r.Render(&buf, NewPage(s)); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "<script>alert(1)</script>") {
		t.Error("product name rendered unescaped")
	}
}

func TestRender_EditDialogPrefill(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatal(err)
	}
	s := testState()
	s.Dialog = domain.EditDialog{Product: s.Products[0]}

	var buf bytes.Buffer
	if err := r.Render(&buf, NewPage(s)); err != nil {
		t.Fatal(err)
	}
	html := buf.String()
	for _, want := range []string{`action="/products/1"`, `value="Widget"`, `value="9.99"`, `value="3"`, "Update Product"} {
		if !strings.Contains(html, want) {
			t.Errorf("edit dialog is missing %q", want)
		}
	}
}

func TestRender_DialogsShowDraft(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatal(err)
	}
	draft := &domain.ProductDraft{Name: "Gizmo", Description: "Shiny <b>", Price: "abc", Stock: "2"}

	tests := []struct {
		name   string
		dialog func(s admin.State) domain.Dialog
		wants  []string
	}{
		{
			name:   "add",
			dialog: func(admin.State) domain.Dialog { return domain.AddDialog{Draft: draft} },
			wants:  []string{`action="/products"`, `value="Gizmo"`, "Shiny &lt;b&gt;", `value="abc"`, `value="2"`},
		},
		{
			name:   "edit",
			dialog: func(s admin.State) domain.Dialog { return domain.EditDialog{Product: s.Products[0], Draft: draft} },
			wants:  []string{`action="/products/1"`, `value="Gizmo"`, "Shiny &lt;b&gt;", `value="abc"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testState()
			s.Dialog = tt.dialog(s)

			var buf bytes.Buffer
			if err := r.Render(&buf, NewPage(s)); err != nil {
				t.Fatal(err)
			}
			html := buf.String()
			for _, want := range tt.wants {
				if !strings.Contains(html, want) {
					t.Errorf("dialog is missing %q", want)
				}
			}
			if tt.name == "edit" && strings.Contains(html, `value="Widget"`) {
				t.Error("edit dialog shows the stored name instead of the draft")
			}
		})
	}
}

func TestDraftFromForm_KeepsRawText(t *testing.T) {
	form := url.Values{"name": {" Gizmo "}, "description": {"Shiny"}, "price": {"$1.5"}, "stock": {"x"}}
	got := DraftFromForm(form)
	want := domain.ProductDraft{Name: " Gizmo ", Description: "Shiny", Price: "$1.5", Stock: "x"}
	if got != want {
		t.Errorf("draft = %+v, want %+v", got, want)
	}
}
