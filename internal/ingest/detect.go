package ingest

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// fileKeywords maps file-name fragments to table kinds. More specific
// fragments come first so "category_forecast" is not read as demand.
var fileKeywords = []struct {
	fragment string
	kind     Kind
}{
	{"category_forecast", KindCategoryForecast},
	{"forecast_category", KindCategoryForecast},
	{"estimated_so", KindEstimatedSO},
	{"so_estimate", KindEstimatedSO},
	{"inbound_order", KindInboundOrder},
	{"instant_po", KindInboundOrder},
	{"holiday", KindHoliday},
	{"libur", KindHoliday},
	{"sku", KindSKU},
	{"vendor", KindVendor},
	{"supplier", KindVendor},
	{"cost", KindCost},
	{"eoq", KindCost},
	{"forecast", KindDemand},
	{"demand", KindDemand},
	{"stock", KindStock},
	{"stok", KindStock},
}

var datePrefix = regexp.MustCompile(`^(\d{8})[_\- ]`)

// DetectKind guesses the table kind from a file name such as
// "20250604_estimated SO.xlsx".
func DetectKind(fileName string) (Kind, bool) {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	base = strings.ToLower(base)
	base = strings.NewReplacer(" ", "_", "-", "_", ".", "_").Replace(base)
	for _, kw := range fileKeywords {
		if strings.Contains(base, kw.fragment) {
			return kw.kind, true
		}
	}
	return "", false
}

// FileDate returns the YYYYMMDD prefix of a file name, if it has one.
func FileDate(fileName string) (time.Time, bool) {
	m := datePrefix.FindStringSubmatch(filepath.Base(fileName))
	if m == nil {
		return time.Time{}, false
	}
	d, err := time.Parse("20060102", m[1])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Supported reports whether Read can decode the file's extension.
func Supported(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}
