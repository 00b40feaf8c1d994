package cmd

import "net/url"

// redactQuery drops the query string (WooCommerce keys may be passed there).
func redactQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	return u.String()
}
