package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

const (
	TabAuction       = "auction"
	TabSupply        = "supply"
	TabMicronPrices  = "micron_prices"
	TabBuyers        = "buyers"
	TabBrokers       = "brokers"
	TabTopPerformers = "top_performers"
)

var ErrPendingCreation = errors.New("selection still needs its entity created")

type Issue struct {
	Tab     string `json:"tab"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Issues []Issue `json:"issues"`
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s.%s: %s", issue.Tab, issue.Field, issue.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ByTab groups the issues by editor tab.
func (e *ValidationError) ByTab() map[string][]Issue {
	out := make(map[string][]Issue)
	if e == nil {
		return out
	}
	for _, issue := range e.Issues {
		out[issue.Tab] = append(out[issue.Tab], issue)
	}
	return out
}

type issues []Issue

func (is *issues) add(tab string, field string, format string, args ...any) {
	*is = append(*is, Issue{Tab: tab, Field: field, Message: fmt.Sprintf(format, args...)})
}

func (is issues) err() error {
	if len(is) == 0 {
		return nil
	}
	return &ValidationError{Issues: is}
}

// ValidateDraft checks only what a draft save cannot store: a malformed date
// and "+Add New" selections whose name was never entered.
func ValidateDraft(r Report) error {
	var found issues
	checkStructure(r, &found)
	return found.err()
}

// ValidateForPublish checks everything a published report must satisfy.
func ValidateForPublish(r Report) error {
	var found issues
	checkStructure(r, &found)

	if strings.TrimSpace(r.Auction.AuctionDate) == "" {
		found.add(TabAuction, "auction_date", "auction date is required")
	}
	if strings.TrimSpace(r.Auction.CatalogueName) == "" {
		found.add(TabAuction, "catalogue_name", "catalogue is required")
	} else if !validCatalogue(r.Auction.CatalogueName) {
		found.add(TabAuction, "catalogue_name", "catalogue %q must be letters followed by digits", r.Auction.CatalogueName)
	}
	if strings.TrimSpace(r.Auction.CommodityTypeID) == "" {
		found.add(TabAuction, "commodity_type_id", "commodity type is required")
	}
	if strings.TrimSpace(r.Auction.SeasonID) == "" {
		found.add(TabAuction, "season_id", "season is required")
	}

	if r.Supply.OfferedBales < 0 || r.Supply.SoldBales < 0 {
		found.add(TabSupply, "bales", "bale counts must not be negative")
	}
	if r.Supply.SoldBales > r.Supply.OfferedBales {
		found.add(TabSupply, "sold_bales", "sold bales %d exceed offered bales %d", r.Supply.SoldBales, r.Supply.OfferedBales)
	}

	seen := make(map[float64]bool)
	for i, row := range r.MicronPrices {
		if row.Micron <= 0 {
			found.add(TabMicronPrices, fmt.Sprintf("[%d].micron", i), "micron must be positive")
		}
		if seen[row.Micron] {
			found.add(TabMicronPrices, fmt.Sprintf("[%d].micron", i), "micron %.1f is listed twice", row.Micron)
		}
		seen[row.Micron] = true
	}

	for i, row := range r.BuyerPerformance {
		if row.Buyer.IsZero() {
			found.add(TabBuyers, fmt.Sprintf("[%d].buyer", i), "buyer is required")
		}
		if row.Cat < 0 {
			found.add(TabBuyers, fmt.Sprintf("[%d].cat", i), "bale count must not be negative")
		}
	}

	for i, row := range r.BrokerPerformance {
		if row.Broker.IsZero() {
			found.add(TabBrokers, fmt.Sprintf("[%d].broker", i), "broker is required")
		}
		if row.WithdrawnBeforeSale > row.CatalogueOffering {
			found.add(TabBrokers, fmt.Sprintf("[%d].withdrawn_before_sale", i), "withdrawn exceeds catalogue offering")
		}
		if row.Sold < 0 || row.NotSold < 0 {
			found.add(TabBrokers, fmt.Sprintf("[%d].sold", i), "sold figures must not be negative")
		}
	}

	for i, group := range r.TopPerformers {
		if group.Province.IsZero() {
			found.add(TabTopPerformers, fmt.Sprintf("[%d].province", i), "province is required")
		}
		for j, producer := range group.Producers {
			if strings.TrimSpace(producer.Name) == "" {
				found.add(TabTopPerformers, fmt.Sprintf("[%d].producers[%d].name", i, j), "producer name is required")
			}
		}
	}

	return found.err()
}

func checkStructure(r Report, found *issues) {
	if date := strings.TrimSpace(r.Auction.AuctionDate); date != "" {
		if _, err := time.Parse(DateLayout, date); err != nil {
			found.add(TabAuction, "auction_date", "auction date %q is not YYYY-MM-DD", date)
		}
	}
	for i, row := range r.BuyerPerformance {
		if row.Buyer.Pending() && strings.TrimSpace(row.Buyer.Name) == "" {
			found.add(TabBuyers, fmt.Sprintf("[%d].buyer", i), "name entry required for new buyer")
		}
	}
	for i, row := range r.BrokerPerformance {
		if row.Broker.Pending() && strings.TrimSpace(row.Broker.Name) == "" {
			found.add(TabBrokers, fmt.Sprintf("[%d].broker", i), "name entry required for new broker")
		}
	}
	for i, group := range r.TopPerformers {
		if group.Province.Pending() && strings.TrimSpace(group.Province.Name) == "" {
			found.add(TabTopPerformers, fmt.Sprintf("[%d].province", i), "name entry required for new province")
		}
	}
}
