package domain

// Dialog is the single active modal of the admin page. The concrete types
// below are the only implementations, so a page can never have two dialogs
// open at once.
type Dialog interface {
	dialogKind() string
}

// NoDialog means nothing is open.
type NoDialog struct{}

// ProductDraft is a product form exactly as the user typed it, kept so a
// rejected submit can be shown again for correction.
type ProductDraft struct {
	Name        string
	Description string
	Price       string
	Stock       string
}

// AddDialog is the create form. Draft is set after a failed submit.
type AddDialog struct{ Draft *ProductDraft }

// EditDialog edits Product. Draft is set after a failed submit.
type EditDialog struct {
	Product Product
	Draft   *ProductDraft
}

// DeleteDialog confirms deletion of Product.
type DeleteDialog struct{ Product Product }

// DetailsDialog shows Product read-only.
type DetailsDialog struct{ Product Product }

func (NoDialog) dialogKind() string      { return "" }
func (AddDialog) dialogKind() string     { return "add" }
func (EditDialog) dialogKind() string    { return "edit" }
func (DeleteDialog) dialogKind() string  { return "delete" }
func (DetailsDialog) dialogKind() string { return "details" }

// DialogKind names the active dialog, or "" when none is open.
func DialogKind(d Dialog) string {
	if d == nil {
		return ""
	}
	return d.dialogKind()
}

// DialogProduct returns the product a dialog was opened for.
func DialogProduct(d Dialog) (Product, bool) {
	switch v := d.(type) {
	case EditDialog:
		return v.Product, true
	case DeleteDialog:
		return v.Product, true
	case DetailsDialog:
		return v.Product, true
	}
	return Product{}, false
}

// DialogDraft returns the unsaved form values of an add or edit dialog.
func DialogDraft(d Dialog) (ProductDraft, bool) {
	switch v := d.(type) {
	case AddDialog:
		if v.Draft != nil {
			return *v.Draft, true
		}
	case EditDialog:
		if v.Draft != nil {
			return *v.Draft, true
		}
	}
	return ProductDraft{}, false
}
