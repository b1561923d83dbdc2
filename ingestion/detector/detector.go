// Package detector scores uploaded spreadsheets against the known
// vendor fingerprints and picks the best match.
package detector

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// Detection confidence weights. Filename is the strongest single signal
// because resellers rarely rename their export templates.
const (
	filenameWeight = 0.4
	sheetWeight    = 0.3
	columnWeight   = 0.3

	// MatchThreshold is the minimum score a fingerprint must reach for a
	// vendor to be reported at all.
	MatchThreshold = 0.5
)

// Metadata carries everything the downstream transformer needs to know
// about how the file matched.
type Metadata struct {
	MatchedColumns []string       `json:"matched_columns"`
	MatchedSheet   string         `json:"matched_sheet"`
	StoreHeuristic StoreHeuristic `json:"store_heuristic"`
	StoreColumn    string         `json:"store_column,omitempty"`

	DuplicateRows       bool `json:"duplicate_rows"`
	ParenthesisReturns  bool `json:"parenthesis_returns"`
	PositionalStoreCode bool `json:"positional_store_code"`
}

// Result is the outcome of scoring one file against all fingerprints.
// VendorID is empty when no fingerprint reached the match threshold.
type Result struct {
	VendorID   string   `json:"vendor_id"`
	Confidence float64  `json:"confidence"`
	Metadata   Metadata `json:"metadata"`
}

// Detect scores a file against every known fingerprint and returns the
// best match. It is a pure function of the file content and never
// returns an error: unreadable or corrupt input yields an empty result.
func Detect(f *excelize.File, filename string) Result {
	if f == nil {
		return Result{}
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Result{}
	}

	lowerFilename := strings.ToLower(filename)

	best := Result{}
	for _, fp := range fingerprints {
		score, meta := scoreFingerprint(f, fp, lowerFilename, sheets)
		if score > best.Confidence {
			best = Result{VendorID: fp.VendorID, Confidence: score, Metadata: meta}
		}
	}

	if best.Confidence < MatchThreshold {
		// Below threshold: report the confidence for diagnostics but no
		// vendor, so the pipeline aborts with a detection failure.
		best.VendorID = ""
		best.Metadata = Metadata{}
	}
	return best
}

func scoreFingerprint(f *excelize.File, fp Fingerprint, lowerFilename string, sheets []string) (float64, Metadata) {
	var score float64
	meta := Metadata{
		StoreHeuristic:      fp.StoreHeuristic,
		StoreColumn:         fp.StoreColumn,
		DuplicateRows:       fp.DuplicateRows,
		ParenthesisReturns:  fp.ParenthesisReturns,
		PositionalStoreCode: fp.PositionalStoreCode,
	}

	for _, keyword := range fp.FilenameKeywords {
		if strings.Contains(lowerFilename, strings.ToLower(keyword)) {
			score += filenameWeight
			break
		}
	}

	matchedSheet := ""
	for _, want := range fp.SheetNames {
		for _, sheet := range sheets {
			if strings.EqualFold(sheet, want) {
				matchedSheet = sheet
				break
			}
		}
		if matchedSheet != "" {
			break
		}
	}
	if matchedSheet != "" {
		score += sheetWeight
		meta.MatchedSheet = matchedSheet
	}

	// Column overlap is scaled by the fraction of required columns found
	// in the header row, case-insensitive substring match.
	header := headerRow(f, matchedSheet, sheets)
	if len(fp.RequiredColumns) > 0 && len(header) > 0 {
		var matched []string
		for _, col := range fp.RequiredColumns {
			lowerCol := strings.ToLower(col)
			for _, cell := range header {
				if strings.Contains(strings.ToLower(cell), lowerCol) {
					matched = append(matched, col)
					break
				}
			}
		}
		score += columnWeight * float64(len(matched)) / float64(len(fp.RequiredColumns))
		meta.MatchedColumns = matched
	}

	return score, meta
}

// headerRow returns the first row of the matched sheet, falling back to
// the first sheet when the fingerprint sheet was not found.
func headerRow(f *excelize.File, matchedSheet string, sheets []string) []string {
	sheet := matchedSheet
	if sheet == "" {
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil || len(rows) == 0 {
		return nil
	}
	return rows[0]
}
