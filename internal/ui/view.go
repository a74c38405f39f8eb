// Package ui renders the catalog admin page: search bar, add button,
// product grid, dialogs and the cart panel.
package ui

import (
	"strconv"

	"github.com/mrops-br/catalog-admin/internal/app/admin"
	"github.com/mrops-br/catalog-admin/internal/domain"
	"github.com/shopspring/decimal"
)

// Page is the view model of the whole admin page.
type Page struct {
	Search     string
	Loaded     bool
	Products   []ProductCard
	Cart       *CartView
	Dialog     DialogView
	Notice     *admin.Notice
	AddPending bool
}

// ProductCard is one grid cell.
type ProductCard struct {
	domain.Product
	PriceText    string
	CanAddToCart bool
	Pending      bool
}

// CartView is the cart panel. It is nil when the cart is empty.
type CartView struct {
	Lines []CartLine
	Total string
}

// CartLine is one CartItem row.
type CartLine struct {
	ID          int64
	Name        string
	Quantity    int
	LineTotal   string
	CanIncrease bool
	Pending     bool
}

// Increment is the quantity the plus button asks for.
func (l CartLine) Increment() int { return l.Quantity + 1 }

// Decrement is the quantity the minus button asks for.
func (l CartLine) Decrement() int { return l.Quantity - 1 }

// DialogView describes the open dialog, if any.
type DialogView struct {
	Kind    string
	Product domain.Product
	Form    domain.ProductDraft
	Pending bool
}

// NewPage builds the view model from a controller snapshot.
func NewPage(s admin.State) Page {
	page := Page{
		Search:     s.Search,
		Loaded:     s.ProductsLoaded,
		Notice:     s.Notice,
		AddPending: s.Pending[admin.PendingAddProduct()],
	}

	for _, p := range s.Filtered() {
		page.Products = append(page.Products, ProductCard{
			Product:      p,
			PriceText:    Money(p.Price),
			CanAddToCart: p.Stock > 0,
			Pending:      s.Pending[admin.PendingAddToCart(p.ID)],
		})
	}

	if !s.Cart.IsEmpty() {
		cart := &CartView{Total: Money(s.Cart.Total())}
		for _, item := range s.Cart.Items {
			stock, ok := s.DisplayedStock(item.Product.ID)
			if !ok {
				stock = item.Product.Stock
			}
			cart.Lines = append(cart.Lines, CartLine{
				ID:          item.ID,
				Name:        item.Product.Name,
				Quantity:    item.Quantity,
				LineTotal:   Money(item.LineTotal()),
				CanIncrease: stock > 0,
				Pending:     s.Pending[admin.PendingCartItem(item.ID)],
			})
		}
		page.Cart = cart
	}

	page.Dialog = DialogView{Kind: domain.DialogKind(s.Dialog)}
	if p, ok := domain.DialogProduct(s.Dialog); ok {
		page.Dialog.Product = p
		switch page.Dialog.Kind {
		case "edit":
			page.Dialog.Pending = s.Pending[admin.PendingEditProduct(p.ID)]
		case "delete":
			page.Dialog.Pending = s.Pending[admin.PendingDeleteProduct(p.ID)]
		}
	} else if page.Dialog.Kind == "add" {
		page.Dialog.Pending = page.AddPending
	}

	if draft, ok := domain.DialogDraft(s.Dialog); ok {
		page.Dialog.Form = draft
	} else if page.Dialog.Kind == "edit" {
		p := page.Dialog.Product
		page.Dialog.Form = domain.ProductDraft{
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price.StringFixed(2),
			Stock:       strconv.Itoa(p.Stock),
		}
	}

	return page
}

// Money formats an amount as dollars with two decimals.
func Money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
