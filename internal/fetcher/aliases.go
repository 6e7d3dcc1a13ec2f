package fetcher

import (
	"strings"

	"NewsRadar/internal/canon"
)

// DefaultAliases maps site domains that publish a well-known feed to that feed.
var DefaultAliases = map[string]string{
	"ynet.co.il":      "https://www.ynet.co.il/Integration/StoryRss2.xml",
	"globes.co.il":    "https://www.globes.co.il/webservice/rss/rss.aspx?BID=2",
	"calcalist.co.il": "https://www.calcalist.co.il/GeneralRSS/0,16335,L-8,00.xml",
	"themarker.com":   "https://www.themarker.com/srv/tm-market-rss",
	"bizportal.co.il": "https://www.bizportal.co.il/forumpages/rss/general",
}

// ResolveTarget returns the URL to fetch for a source. URLs that already point
// at a feed are kept; otherwise the source domain, or its closest parent domain,
// is looked up in aliases.
func ResolveTarget(raw string, aliases map[string]string) string {
	lower := strings.ToLower(raw)
	if strings.Contains(lower, "xml") || strings.Contains(lower, "rss") {
		return raw
	}

	host := canon.Domain(raw)
	for host != "" {
		if feed, ok := aliases[host]; ok {
			return feed
		}
		i := strings.IndexByte(host, '.')
		if i < 0 {
			break
		}
		host = host[i+1:]
	}
	return raw
}
