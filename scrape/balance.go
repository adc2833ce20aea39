package scrape

import (
	"regexp"

	"golang.org/x/net/html"

	"v2scrape/model"
)

var (
	goldRe   = balanceTierRe("gold")
	silverRe = balanceTierRe("silver")
	bronzeRe = balanceTierRe("bronze")
)

func balanceTierRe(tier string) *regexp.Regexp {
	return regexp.MustCompile(`(\d+)\s*<img[^>]*?\ssrc=["'][^"']*` + tier)
}

// ParseBalance reads the coin counts from a balance fragment. A tier without its icon
// stays nil rather than zero. It returns nil for a nil fragment.
func ParseBalance(fragment *html.Node) *model.Balance {
	if fragment == nil {
		return nil
	}
	return parseBalanceHTML(innerHTML(fragment))
}

func parseBalanceHTML(s string) *model.Balance {
	tier := func(re *regexp.Regexp) *int {
		if v, ok := submatchInt(re, s); ok {
			return intPtr(v)
		}
		return nil
	}
	return &model.Balance{
		Gold:   tier(goldRe),
		Silver: tier(silverRe),
		Bronze: tier(bronzeRe),
	}
}
