package detector

// StoreHeuristic tells the downstream transformer where store identity
// lives in a vendor's files.
type StoreHeuristic string

const (
	StoreColumnHeuristic   StoreHeuristic = "store_column"
	SheetPerStoreHeuristic StoreHeuristic = "sheet_per_store"
	PositionalHeuristic    StoreHeuristic = "positional_first_column"
	NoStoreHeuristic       StoreHeuristic = "none"
)

// Fingerprint describes how to recognize one vendor's file format.
type Fingerprint struct {
	VendorID         string
	FilenameKeywords []string
	SheetNames       []string
	RequiredColumns  []string

	StoreHeuristic StoreHeuristic
	StoreColumn    string

	// Special-handling flags consumed downstream
	DuplicateRows       bool
	ParenthesisReturns  bool
	PositionalStoreCode bool
}

// fingerprints is the read-only vendor recognition table. It is the only
// state shared between concurrently running batches.
var fingerprints = []Fingerprint{
	{
		VendorID:         "ingrammicro",
		FilenameKeywords: []string{"ingram", "im_sellthrough"},
		SheetNames:       []string{"Sell Through", "Sellout"},
		RequiredColumns:  []string{"EAN", "Store Code", "Quantity", "Sales Value", "Date"},
		StoreHeuristic:   StoreColumnHeuristic,
		StoreColumn:      "Store Code",
	},
	{
		VendorID:           "tdsynnex",
		FilenameKeywords:   []string{"synnex", "td_sellout"},
		SheetNames:         []string{"Weekly Sellout"},
		RequiredColumns:    []string{"Part Number", "Branch", "Units", "Net Amount", "Invoice Date"},
		StoreHeuristic:     StoreColumnHeuristic,
		StoreColumn:        "Branch",
		ParenthesisReturns: true,
	},
	{
		VendorID:         "alsoholding",
		FilenameKeywords: []string{"also", "also_report"},
		SheetNames:       []string{"Summary"},
		RequiredColumns:  []string{"EAN", "Qty", "Turnover", "Period"},
		StoreHeuristic:   SheetPerStoreHeuristic,
	},
	{
		VendorID:            "exertis",
		FilenameKeywords:    []string{"exertis"},
		SheetNames:          []string{"Sales Data"},
		RequiredColumns:     []string{"Product Code", "Sold Qty", "Sell Price", "Week Ending"},
		StoreHeuristic:      PositionalHeuristic,
		PositionalStoreCode: true,
	},
	{
		VendorID:         "elkogroup",
		FilenameKeywords: []string{"elko"},
		SheetNames:       []string{"Sales Report"},
		RequiredColumns:  []string{"Product Name", "Warehouse", "Quantity", "Amount", "Document Date"},
		StoreHeuristic:   StoreColumnHeuristic,
		StoreColumn:      "Warehouse",
	},
	{
		VendorID:         "despec",
		FilenameKeywords: []string{"despec"},
		SheetNames:       []string{"Sell Out"},
		RequiredColumns:  []string{"EAN", "Outlet", "Pieces", "Date"},
		StoreHeuristic:   StoreColumnHeuristic,
		StoreColumn:      "Outlet",
	},
	{
		VendorID:         "aptecdist",
		FilenameKeywords: []string{"aptec"},
		SheetNames:       []string{"Cumulative Sales"},
		RequiredColumns:  []string{"EAN", "Location", "Qty Sold", "Value", "Txn Date"},
		StoreHeuristic:   StoreColumnHeuristic,
		StoreColumn:      "Location",
		DuplicateRows:    true,
	},
	{
		VendorID:           "westcoastltd",
		FilenameKeywords:   []string{"westcoast", "wc_sales"},
		SheetNames:         []string{"Sales & Returns"},
		RequiredColumns:    []string{"EAN", "Store", "Quantity", "Line Total", "Sold Date"},
		StoreHeuristic:     StoreColumnHeuristic,
		StoreColumn:        "Store",
		DuplicateRows:      true,
		ParenthesisReturns: true,
	},
}

// Fingerprints returns the known vendor fingerprint table.
func Fingerprints() []Fingerprint {
	return fingerprints
}
