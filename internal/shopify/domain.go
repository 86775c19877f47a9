package shopify

import "strings"

const shopDomainSuffix = ".myshopify.com"

// NormalizeShopDomain lowercases and trims a shop domain.
func NormalizeShopDomain(shop string) string {
	return strings.ToLower(strings.TrimSpace(shop))
}

// ValidShopDomain reports whether shop looks like "<name>.myshopify.com".
func ValidShopDomain(shop string) bool {
	if !strings.HasSuffix(shop, shopDomainSuffix) {
		return false
	}
	if strings.ContainsAny(shop, "/ :@?#") {
		return false
	}

	name := strings.TrimSuffix(shop, shopDomainSuffix)
	if name == "" || strings.HasPrefix(name, "-") {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
		default:
			return false
		}
	}
	return true
}
