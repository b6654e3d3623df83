package ledger

import "strings"

// Canonical account names
const (
	AccountBank               = "Bank Account"
	AccountSavings            = "Savings Account"
	AccountLoanPayable        = "Loan Payable"
	AccountInterestExpense    = "Interest Expense"
	AccountInterestIncome     = "Interest Income"
	AccountAccountsPayable    = "Accounts Payable"
	AccountAccountsReceivable = "Accounts Receivable"
	AccountGeneralExpense     = "General Expense"
	AccountOtherIncome        = "Other Income"
)

// Rule maps any of its keywords to a canonical account
type Rule struct {
	Keywords []string
	Account  string
}

// RuleTable is evaluated top to bottom; the first rule with a keyword contained in the
// input (case-insensitive) wins.
type RuleTable struct {
	Rules    []Rule
	Fallback string
}

// Resolve returns the account for text, or the fallback when nothing matches
func (t RuleTable) Resolve(text string) string {
	needle := strings.ToLower(text)
	if strings.TrimSpace(needle) == "" {
		return t.Fallback
	}
	for _, rule := range t.Rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(needle, strings.ToLower(keyword)) {
				return rule.Account
			}
		}
	}
	return t.Fallback
}

var ExpenseRules = RuleTable{
	Rules: []Rule{
		{Keywords: []string{"electric", "water", "gas", "utility", "utilities", "power"}, Account: "Utilities Expense"},
		{Keywords: []string{"rent", "lease", "mortgage"}, Account: "Rent Expense"},
		{Keywords: []string{"internet", "phone", "mobile", "telecom", "cable"}, Account: "Communication Expense"},
		{Keywords: []string{"insurance"}, Account: "Insurance Expense"},
		{Keywords: []string{"grocer", "food", "restaurant", "meal", "dining"}, Account: "Food Expense"},
		{Keywords: []string{"transport", "fuel", "taxi", "parking", "travel"}, Account: "Transportation Expense"},
		{Keywords: []string{"subscription", "software", "streaming"}, Account: "Subscription Expense"},
		{Keywords: []string{"medical", "health", "pharmacy", "doctor"}, Account: "Medical Expense"},
		{Keywords: []string{"tuition", "school", "education", "course"}, Account: "Education Expense"},
		{Keywords: []string{"maintenance", "repair"}, Account: "Maintenance Expense"},
		{Keywords: []string{"tax"}, Account: "Tax Expense"},
	},
	Fallback: AccountGeneralExpense,
}

var IncomeRules = RuleTable{
	Rules: []Rule{
		{Keywords: []string{"salary", "wage", "payroll", "bonus"}, Account: "Salary Income"},
		{Keywords: []string{"freelance", "consult", "contract"}, Account: "Freelance Income"},
		{Keywords: []string{"business", "sales", "revenue"}, Account: "Business Income"},
		{Keywords: []string{"interest"}, Account: AccountInterestIncome},
		{Keywords: []string{"dividend", "investment", "capital gain"}, Account: "Investment Income"},
		{Keywords: []string{"rental", "rent"}, Account: "Rental Income"},
		{Keywords: []string{"gift"}, Account: "Gift Income"},
		{Keywords: []string{"refund", "reimburse"}, Account: "Refund Income"},
	},
	Fallback: AccountOtherIncome,
}

// qualified returns "base - name", or base alone when name is blank
func qualified(base, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return base
	}
	return base + " - " + name
}
