package core

// DefaultCategories returns a fresh copy of the categories a new or
// cleared ledger starts with.
func DefaultCategories() CategorySet {
	return CategorySet{
		Income: []Category{
			{Name: "Salary", Icon: "💰", Kind: KindIncome},
			{Name: "Profit", Icon: "📈", Kind: KindIncome},
			{Name: "Loan", Icon: "🏦", Kind: KindIncome},
			{Name: "Gift", Icon: "🎁", Kind: KindIncome},
			{Name: "Other", Icon: "🪙", Kind: KindIncome},
		},
		Expense: []Category{
			{Name: "Repay Loan", Icon: "💸", Kind: KindExpense},
			{Name: "Grocery", Icon: "🛒", Kind: KindExpense},
			{Name: "Rent", Icon: "🏠", Kind: KindExpense},
			{Name: "Transport", Icon: "🚗", Kind: KindExpense},
			{Name: "Entertainment", Icon: "🎬", Kind: KindExpense},
			{Name: "Other", Icon: "🛍️", Kind: KindExpense},
		},
	}
}
