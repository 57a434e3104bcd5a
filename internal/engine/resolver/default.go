package resolver

import "github.com/hejijunhao/teller/internal/model"

// DefaultIcon is returned when no table entry matches.
const DefaultIcon = "ri-checkbox-circle-fill"

// DefaultEntries returns the built-in icon table. Order matters: the
// substring pass returns the first matching entry.
func DefaultEntries() []Entry {
	return []Entry{
		{Key: "credit card", Icon: "ri-bank-card-line"},
		{Key: "retail banking", Icon: "ri-store-3-line"},
		{Key: "credit report", Icon: "ri-bar-chart-line"},
		{Key: "credit reporting", Icon: "ri-bar-chart-line"},
		{Key: "mortgages", Icon: "ri-home-line"},
		{Key: "mortgages & loans", Icon: "ri-home-line"},
		{Key: "mortgage", Icon: "ri-home-line"},
		{Key: "debt collection", Icon: "ri-phone-line"},
		{Key: "loan", Icon: "ri-money-dollar-circle-line"},
		{Key: "bank account", Icon: "ri-bank-line"},
	}
}

// DefaultCatalog describes the datasets that ship with trained artifacts.
func DefaultCatalog() []DatasetInfo {
	return []DatasetInfo{
		{
			Dataset:    model.Dataset1,
			Title:      "Dataset 1",
			Complaints: 162421,
			Mode:       TitleCase,
			Categories: []string{"Credit Card", "Retail Banking", "Credit Report", "Mortgages", "Debt Collection"},
		},
		{
			Dataset:    model.Dataset2,
			Title:      "Dataset 2",
			Complaints: 24374,
			Mode:       Raw,
			Categories: []string{"Credit Report", "Loan", "Debt Collection", "Mortgage", "Credit Card", "Bank Account"},
		},
	}
}
