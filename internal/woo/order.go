package woo

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Order is the subset of a WooCommerce REST v3 order the notifier reads.
// Unknown fields are ignored.
type Order struct {
	ID                 int64      `json:"id"`
	Status             string     `json:"status"`
	Currency           string     `json:"currency"`
	Total              Amount     `json:"total"`
	DateCreated        string     `json:"date_created"`
	PaymentMethodTitle string     `json:"payment_method_title"`
	Billing            Billing    `json:"billing"`
	Shipping           *Address   `json:"shipping,omitempty"`
	LineItems          []LineItem `json:"line_items"`
}

type Billing struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type Address struct {
	Address1 string `json:"address_1"`
	Address2 string `json:"address_2"`
	City     string `json:"city"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

type LineItem struct {
	Name string `json:"name"`
	// Quantity is empty when the field is absent or unusable.
	Quantity Quantity `json:"quantity"`
}

// Amount is a decimal amount kept as its textual form.
//
// WooCommerce sends totals as strings ("45.00"); plain JSON numbers are
// accepted as well. Any other JSON value decodes to the empty amount so one
// odd order does not poison the whole page.
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*a = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(strings.TrimSpace(s))
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		*a = Amount(b)
	default:
		*a = ""
	}
	return nil
}

func (a Amount) String() string { return string(a) }

// Quantity is a line-item quantity kept as its textual form.
//
// WooCommerce sends an integer, but extensions report fractional amounts
// (1.5) or strings ("2"). Like Amount, other JSON values decode to empty.
type Quantity string

func (q *Quantity) UnmarshalJSON(b []byte) error {
	var a Amount
	if err := a.UnmarshalJSON(b); err != nil {
		return err
	}
	*q = Quantity(a)
	return nil
}

func (q Quantity) String() string { return string(q) }
