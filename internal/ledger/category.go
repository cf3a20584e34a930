package ledger

import (
	"strings"

	"github.com/regexflow/ledger-bfa-go/internal/domain"
)

// categoryKeywords is ordered: the first category with a keyword hit wins.
var categoryKeywords = []struct {
	category Category
	keywords []string
}{
	{CategoryFood, []string{
		"swiggy", "zomato", "dominos", "pizza", "mcdonald", "burger", "restaurant", "cafe", "café",
		"dining", "food", "grocery", "bigbasket", "blinkit", "instamart", "dunzo", "eats",
	}},
	{CategoryTransport, []string{
		"uber", "ola", "rapido", "petrol", "fuel", "indianoil", "hp petrol", "shell", "metro",
		"irctc", "railway", "bus", "parking", "toll", "fastag",
	}},
	{CategoryEntertainment, []string{
		"netflix", "prime", "amazon prime", "hotstar", "disney", "spotify", "youtube", "movie",
		"cinema", "pvr", "inox", "gaming", "steam", "playstation", "xbox",
	}},
	{CategoryShopping, []string{
		"amazon", "flipkart", "myntra", "ajio", "meesho", "shopping", "mall",
	}},
	{CategoryBillsUtilities, []string{
		"electricity", "water", "gas", "broadband", "wifi", "jio", "airtel", "vodafone", "recharge",
		"bill", "utility", "bsnl", "act fiber",
	}},
	{CategoryLoanEMI, []string{
		"loan", "emi", "repayment", "disbursed", "sanctioned", "installment", "bajaj", "hdfc loan",
		"icici loan", "sbi loan", "personal loan", "home loan", "car loan",
	}},
	{CategorySubscription, []string{
		"subscription", "renewal", "annual", "monthly plan", "membership",
	}},
	{CategoryTransfer, []string{
		"transfer", "imps", "neft", "rtgs", "to account", "self transfer", "received from", "sent to",
	}},
	{CategoryHealth, []string{
		"pharmacy", "apollo", "medplus", "1mg", "pharmeasy", "hospital", "doctor", "clinic", "health",
	}},
	{CategoryTravel, []string{
		"booking", "makemytrip", "goibibo", "airline", "flight", "hotel", "travel", "visa",
	}},
	{CategoryInvestment, []string{
		"mutual fund", "sip", "zerodha", "groww", "investment", "stock", "demat", "ppf", "fd", "fixed deposit",
	}},
}

// Categories lists the categories in match order, OTHER last.
func Categories() []Category {
	out := make([]Category, 0, len(categoryKeywords)+1)
	for _, c := range categoryKeywords {
		out = append(out, c.category)
	}
	return append(out, CategoryOther)
}

// InferCategory maps merchant and SMS text to a spending category.
func InferCategory(merchant, smsText string) Category {
	combined := strings.ToLower(merchant) + " " + strings.ToLower(smsText)
	for _, c := range categoryKeywords {
		if containsAny(combined, c.keywords) {
			return c.category
		}
	}
	return CategoryOther
}

// CategoryOf is InferCategory over extracted fields.
func CategoryOf(ef *domain.ExtractedFields) Category {
	if ef == nil {
		return InferCategory("", "")
	}
	return InferCategory(ef.Merchant, ef.Text())
}
