package format

import (
	"strconv"
	"strings"
	"time"

	"wcnotify/internal/woo"
	"wcnotify/pkg/tgmd"
)

const (
	fallback     = "N/A"
	fallbackItem = "Product"
	fallbackQty  = "1"
)

// Options tune rendering. The zero value is usable.
type Options struct {
	// Location renders zoned timestamps; nil means UTC.
	Location *time.Location
	// EscapeMarkdown escapes Markdown control characters in order values.
	EscapeMarkdown bool
	// MaxLen caps the message length in runes; 0 means tgmd.MaxMessageLen.
	MaxLen int
}

type Formatter struct {
	opts Options
}

func New(opts Options) *Formatter {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.MaxLen <= 0 {
		opts.MaxLen = tgmd.MaxMessageLen
	}
	return &Formatter{opts: opts}
}

// Format renders one order.
func (f *Formatter) Format(o woo.Order) string {
	var b strings.Builder

	id := fallback
	if o.ID != 0 {
		id = strconv.FormatInt(o.ID, 10)
	}
	date, ok := FormatDate(o.DateCreated, f.opts.Location)
	if !ok {
		date = fallback
	}
	status := fallback
	if strings.TrimSpace(o.Status) != "" {
		status = StatusLabel(o.Status)
	}

	b.WriteString("🛒 " + tgmd.B("New Order").String() + "\n\n")
	f.line(&b, "📋", "Order ID", "#"+id)
	f.line(&b, "👤", "Customer", f.value(customerName(o.Billing)))
	f.line(&b, "📧", "Email", f.value(o.Billing.Email))
	f.line(&b, "📱", "Phone", f.value(o.Billing.Phone))
	f.line(&b, "📅", "Date", date)
	f.line(&b, "💳", "Payment Method", f.value(o.PaymentMethodTitle))
	f.line(&b, "📊", "Status", f.text(status))

	total := Money(o.Total.String())
	if c := strings.TrimSpace(o.Currency); c != "" {
		total += " " + f.text(c)
	}
	f.line(&b, "💰", "Total", total)
	b.WriteString("\n")

	if len(o.LineItems) > 0 {
		b.WriteString(tgmd.B("Products:").String() + "\n")
		for _, it := range o.LineItems {
			name := strings.TrimSpace(it.Name)
			if name == "" {
				name = fallbackItem
			}
			qty := strings.TrimSpace(it.Quantity.String())
			if qty == "" {
				qty = fallbackQty
			}
			b.WriteString("• " + f.text(name) + " (Qty: " + f.text(qty) + ")\n")
		}
	}

	if addr := shippingAddress(o.Shipping); addr != "" {
		b.WriteString("\n" + tgmd.B("Shipping Address:").String() + "\n" + f.text(addr))
	}

	return tgmd.TruncMarkdown(b.String(), f.opts.MaxLen)
}

func (f *Formatter) line(b *strings.Builder, icon, label, value string) {
	b.WriteString(icon + " " + tgmd.B(label+":").String() + " " + value + "\n")
}

// value renders a free-text field, substituting the placeholder for blanks.
func (f *Formatter) value(s string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return f.text(s)
}

func (f *Formatter) text(s string) string {
	if f.opts.EscapeMarkdown {
		return tgmd.Esc(s).String()
	}
	return s
}

func customerName(b woo.Billing) string {
	return strings.TrimSpace(b.FirstName + " " + b.LastName)
}

func shippingAddress(a *woo.Address) string {
	if a == nil {
		return ""
	}
	parts := make([]string, 0, 6)
	for _, p := range []string{a.Address1, a.Address2, a.City, a.State, a.Postcode, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
