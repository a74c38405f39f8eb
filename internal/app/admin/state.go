package admin

import (
	"errors"
	"slices"
	"strconv"

	"github.com/mrops-br/catalog-admin/internal/domain"
)

var (
	ErrRequestInFlight = errors.New("request already in progress")
)

// User-facing messages. Server detail replaces the fallbacks when present.
const (
	MsgLoadProductsFailed  = "Failed to load products."
	MsgLoadCartFailed      = "Failed to load cart."
	MsgAddProductFailed    = "Failed to add product."
	MsgUpdateProductFailed = "Failed to update product."
	MsgAddToCartFailed     = "Failed to add item to cart."
	MsgUpdateCartFailed    = "Failed to update cart."
	MsgOutOfStock          = "This product is out of stock."
	MsgNotEnoughStock      = "Not enough stock available."
	MsgCartItemNotFound    = "Cart item not found."
	MsgProductNotFound     = "Product not found."
)

// FetchPolicy decides what a failed read does to the page.
type FetchPolicy int

const (
	// Critical reads surface failures as a Notice.
	Critical FetchPolicy = iota
	// BestEffort reads only log failures.
	BestEffort
)

// Notice is a blocking notification shown until dismissed.
type Notice struct {
	Action  string
	Message string
}

// State is everything the admin page renders.
type State struct {
	Products       []domain.Product
	ProductsLoaded bool
	Cart           domain.Cart
	Search         string
	Dialog         domain.Dialog
	Notice         *Notice
	Pending        map[string]bool
}

func newState() State {
	return State{
		Products: []domain.Product{},
		Dialog:   domain.NoDialog{},
		Pending:  map[string]bool{},
	}
}

// clone copies s deeply enough that callers cannot mutate controller state.
func (s State) clone() State {
	out := s
	out.Products = slices.Clone(s.Products)
	out.Cart.Items = slices.Clone(s.Cart.Items)
	if s.Notice != nil {
		n := *s.Notice
		out.Notice = &n
	}
	out.Pending = make(map[string]bool, len(s.Pending))
	for k, v := range s.Pending {
		out.Pending[k] = v
	}
	return out
}

// Filtered is the view projection of Products for the current search text.
func (s State) Filtered() []domain.Product {
	return Filter(s.Products, s.Search)
}

// DisplayedStock returns the client-side stock for a product.
func (s State) DisplayedStock(productID int64) (int, bool) {
	i := s.productIndex(productID)
	if i < 0 {
		return 0, false
	}
	return s.Products[i].Stock, true
}

func (s State) productIndex(id int64) int {
	return slices.IndexFunc(s.Products, func(p domain.Product) bool { return p.ID == id })
}

// Filter returns the products whose name contains query, ignoring case.
// An empty query returns every product.
func Filter(products []domain.Product, query string) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.MatchesName(query) {
			out = append(out, p)
		}
	}
	return out
}

// Pending keys identify in-flight requests, one per action and target.

// PendingAddProduct is the key of the create form submit.
func PendingAddProduct() string { return "product:add" }

// PendingEditProduct is the key of the edit form submit for product id.
func PendingEditProduct(id int64) string { return "product:edit:" + strconv.FormatInt(id, 10) }

// PendingDeleteProduct is the key of the delete confirmation for product id.
func PendingDeleteProduct(id int64) string { return "product:delete:" + strconv.FormatInt(id, 10) }

// PendingAddToCart is the key of an add-to-cart click for productID.
func PendingAddToCart(productID int64) string { return "cart:add:" + strconv.FormatInt(productID, 10) }

// PendingCartItem is the key of a quantity change or removal of cart line itemID.
func PendingCartItem(itemID int64) string { return "cart:item:" + strconv.FormatInt(itemID, 10) }
