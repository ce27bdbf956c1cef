package domain

// Supplement is an extra added to a dish (sauce, side, drink).
type Supplement struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// CartItem is one line of the local cart. The id is the dish id; adding the
// same dish twice merges quantities instead of duplicating the line.
type CartItem struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Price       float64      `json:"price"`
	Quantity    int          `json:"quantity"`
	Image       string       `json:"image,omitempty"`
	Description string       `json:"description,omitempty"`
	Supplements []Supplement `json:"supplements,omitempty"`
}

// Subtotal is price times quantity, supplements included once per unit.
func (i CartItem) Subtotal() float64 {
	unit := i.Price
	for _, s := range i.Supplements {
		unit += s.Price
	}
	return unit * float64(i.Quantity)
}

// ToOrderItem maps a cart line to the order payload shape, dropping
// supplement ids that are not valid UUIDs.
func (i CartItem) ToOrderItem() OrderItem {
	ids := make([]string, 0, len(i.Supplements))
	for _, s := range i.Supplements {
		ids = append(ids, s.ID)
	}
	return OrderItem{
		DishID:         i.ID,
		Quantity:       i.Quantity,
		SupplementsIDs: FilterSupplementIDs(ids),
	}
}
