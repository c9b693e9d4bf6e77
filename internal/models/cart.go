package models

import "github.com/shopspring/decimal"

type CartItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
}

// Cart is the shopper's pending selection, persisted per scope.
type Cart struct {
	Items []CartItem `json:"items"`
}

func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

func (c Cart) Empty() bool {
	return len(c.Items) == 0
}

// Add puts item into the cart, summing quantities for a product already there.
func (c Cart) Add(item CartItem) Cart {
	items := make([]CartItem, 0, len(c.Items)+1)
	merged := false
	for _, existing := range c.Items {
		if existing.ProductID == item.ProductID {
			existing.Quantity += item.Quantity
			merged = true
		}
		items = append(items, existing)
	}
	if !merged {
		items = append(items, item)
	}
	return Cart{Items: items}
}

// SetQuantity changes a product's quantity; zero or less removes it.
func (c Cart) SetQuantity(productID string, qty int) Cart {
	items := make([]CartItem, 0, len(c.Items))
	for _, existing := range c.Items {
		if existing.ProductID == productID {
			if qty <= 0 {
				continue
			}
			existing.Quantity = qty
		}
		items = append(items, existing)
	}
	return Cart{Items: items}
}

// Merge adds every item of other into c.
func (c Cart) Merge(other Cart) Cart {
	out := c
	for _, item := range other.Items {
		out = out.Add(item)
	}
	return out
}

// Snapshot freezes the cart into order line items.
func (c Cart) Snapshot() []LineItem {
	items := make([]LineItem, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, LineItem{
			ProductID:         item.ProductID,
			NameSnapshot:      item.Name,
			UnitPriceSnapshot: item.UnitPrice,
			Quantity:          item.Quantity,
			ImageSnapshot:     item.Image,
		})
	}
	return items
}
