package categorize

import "strings"

const (
	// DefaultIncoming is assigned to uncategorized credits.
	DefaultIncoming = "Unknown Incoming"
	// DefaultOutgoing is assigned to uncategorized debits.
	DefaultOutgoing = "Miscellaneous"
)

// Rule maps a set of description keywords to a category. Rules are checked
// in order and the first match wins, so more specific rules belong earlier
// in the list.
type Rule struct {
	Category string
	Keywords []string
	// IncomeOnly restricts the rule to positive amounts.
	IncomeOnly bool
}

// Engine assigns spending categories by keyword lookup against an ordered
// rule list. The zero value is not usable; build one with NewEngine.
type Engine struct {
	rules []Rule
	cache *lookupCache
}

// NewEngine builds an engine over the given rules. Pass DefaultRules() for
// the stock rule set.
func NewEngine(rules []Rule) *Engine {
	return &Engine{
		rules: rules,
		cache: newLookupCache(defaultCacheSize),
	}
}

// Categorize returns the category for a transaction. Matching is
// case-insensitive substring search over the description; amount sign only
// matters for income-only rules and for picking the default.
func (e *Engine) Categorize(description string, amount float64) string {
	key := strings.ToLower(strings.TrimSpace(description))
	isPositive := amount > 0

	if cat, ok := e.cache.get(key, isPositive); ok {
		return cat
	}

	cat := e.match(key, isPositive)
	e.cache.put(key, isPositive, cat)
	return cat
}

func (e *Engine) match(lowerDescription string, isPositive bool) string {
	for _, rule := range e.rules {
		if rule.IncomeOnly && !isPositive {
			continue
		}
		for _, kw := range rule.Keywords {
			if strings.Contains(lowerDescription, kw) {
				return rule.Category
			}
		}
	}
	if isPositive {
		return DefaultIncoming
	}
	return DefaultOutgoing
}

// Categories lists every category the stock rules can produce, defaults
// included.
func Categories() []string {
	cats := make([]string, 0, len(DefaultRules())+2)
	for _, r := range DefaultRules() {
		cats = append(cats, r.Category)
	}
	return append(cats, DefaultIncoming, DefaultOutgoing)
}

// DefaultRules returns the stock rule set. Keywords are lowercase; the
// Singapore merchants reflect the statements this started out parsing.
func DefaultRules() []Rule {
	return []Rule{
		{
			Category:   "Salary & Income",
			IncomeOnly: true,
			Keywords: []string{
				"salary", "wage", "payroll", "deposit", "income",
				"payment received", "transfer from", "credit interest",
			},
		},
		{
			Category: "Food & Dining",
			Keywords: []string{
				"restaurant", "cafe", "coffee", "food", "dining",
				"mcdonald", "kfc", "starbucks", "pizza", "burger",
				"grocery", "supermarket", "market", "bakery", "bar",
				"uber eats", "doordash", "grubhub", "deliveroo", "foodpanda", "grabfood",
				"ntuc", "fairprice", "cold storage", "giant", "sheng siong",
				"food court", "hawker", "kopitiam", "toast box", "ya kun",
				"old chang kee", "breadtalk", "four fingers", "japanese sushi",
				"swensen", "astons", "pastamania", "subway", "yoshinoya",
				"ramen", "sushi", "dim sum", "chicken rice",
			},
		},
		{
			Category: "Transport",
			Keywords: []string{
				"uber", "lyft", "taxi", "cab", "transport",
				"gas station", "fuel", "petrol", "parking",
				"metro", "subway", "bus", "train", "railway",
				"shell", "bp", "exxon", "chevron",
				"car wash", "toll", "transit",
				"grab", "gojek", "comfort", "citycab", "trans-cab",
				"mrt", "lta", "ez-link", "simplygo", "nets flashpay",
				"erp", "parking.sg", "smrt", "sbs transit",
				"esso", "caltex", "sinopec", "shell singapore",
			},
		},
		{
			Category: "Shopping",
			Keywords: []string{
				"amazon", "ebay", "shop", "store", "retail",
				"mall", "clothing", "fashion", "shoes",
				"electronics", "best buy", "target", "costco",
				"home depot", "ikea", "furniture", "online purchase",
				"lazada", "shopee", "qoo10", "carousell", "zalora",
				"uniqlo", "h&m", "zara", "cotton on", "charles & keith",
				"guardian", "watsons", "sephora", "daiso",
				"courts", "harvey norman", "best denki", "gain city",
				"popular", "kinokuniya", "toys r us",
				"ikea singapore", "taobao", "shein",
			},
		},
		{
			Category: "Bills & Utilities",
			Keywords: []string{
				"electric", "electricity", "gas bill", "water bill",
				"internet", "phone bill", "mobile", "utility",
				"insurance", "rent", "mortgage", "lease",
				"netflix", "spotify", "subscription", "hulu",
				"disney+", "apple music", "youtube premium",
				"sp services", "spservices", "pub", "city gas",
				"singtel", "starhub", "m1", "circles.life", "gomo",
				"viewqwest", "myrepublic", "whizcomms",
				"aia", "prudential", "great eastern", "income",
				"hdb", "town council", "conservancy",
			},
		},
		{
			Category: "Healthcare",
			Keywords: []string{
				"pharmacy", "hospital", "clinic", "doctor",
				"medical", "health", "dental", "dentist",
				"cvs", "walgreens", "prescription", "medicine",
			},
		},
		{
			Category: "Entertainment",
			Keywords: []string{
				"cinema", "movie", "theater", "concert",
				"spotify", "music", "game", "gaming",
				"steam", "playstation", "xbox", "nintendo",
				"gym", "fitness", "sports", "club",
			},
		},
		{
			Category: "Travel",
			Keywords: []string{
				"hotel", "airbnb", "booking", "airline",
				"flight", "airport", "travel", "vacation",
				"expedia", "hotels.com", "hostel", "resort",
			},
		},
		{
			Category: "Education",
			Keywords: []string{
				"school", "university", "college", "tuition",
				"course", "education", "book", "bookstore",
				"udemy", "coursera", "skillshare", "masterclass",
			},
		},
		{
			Category: "Transfers",
			Keywords: []string{
				"transfer to", "transfer from", "atm withdrawal",
				"atm deposit", "cash withdrawal", "venmo",
				"paypal", "zelle", "cash app", "bank transfer",
			},
		},
	}
}
