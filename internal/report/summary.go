package report

import "sort"

const summaryTopBuyers = 5

// MarketSummary is the market data handed to the insight composer next to the
// free text.
type MarketSummary struct {
	AuctionDate      string               `json:"auction_date"`
	CatalogueName    string               `json:"catalogue_name"`
	OfferedBales     int                  `json:"offered_bales"`
	SoldBales        int                  `json:"sold_bales"`
	ClearanceRatePct float64              `json:"clearance_rate_pct"`
	TurnoverZAR      float64              `json:"turnover_zar"`
	TopBuyers        []SummaryBuyer       `json:"top_buyers"`
	MicronPrices     []SummaryMicronPrice `json:"micron_prices"`
}

type SummaryBuyer struct {
	Name     string  `json:"name"`
	Cat      int     `json:"cat"`
	SharePct float64 `json:"share_pct"`
}

type SummaryMicronPrice struct {
	Micron        float64  `json:"micron"`
	NonCert       *float64 `json:"non_cert_clean_zar_per_kg,omitempty"`
	Cert          *float64 `json:"cert_clean_zar_per_kg,omitempty"`
	PctDifference *float64 `json:"pct_difference,omitempty"`
}

// Summarize builds the composer summary from a recalculated copy of r.
func Summarize(r Report) MarketSummary {
	calculated := r
	calculated.BuyerPerformance = append([]BuyerRow(nil), r.BuyerPerformance...)
	calculated.MicronPrices = append([]MicronPriceRow(nil), r.MicronPrices...)
	calculated.BrokerPerformance = append([]BrokerRow(nil), r.BrokerPerformance...)
	calculated.TopPerformers = nil
	Recalculate(&calculated, PreviousPeriod{})

	summary := MarketSummary{
		AuctionDate:      calculated.Auction.AuctionDate,
		CatalogueName:    calculated.Auction.CatalogueName,
		OfferedBales:     calculated.Supply.OfferedBales,
		SoldBales:        calculated.Supply.SoldBales,
		ClearanceRatePct: calculated.Supply.ClearanceRatePct,
		TurnoverZAR:      calculated.Greasy.TurnoverZAR,
		TopBuyers:        []SummaryBuyer{},
		MicronPrices:     []SummaryMicronPrice{},
	}

	buyers := calculated.BuyerPerformance
	sort.SliceStable(buyers, func(i, j int) bool { return buyers[i].Cat > buyers[j].Cat })
	for i, row := range buyers {
		if i == summaryTopBuyers {
			break
		}
		summary.TopBuyers = append(summary.TopBuyers, SummaryBuyer{Name: row.Buyer.Name, Cat: row.Cat, SharePct: row.SharePct})
	}

	for _, row := range calculated.MicronPrices {
		summary.MicronPrices = append(summary.MicronPrices, SummaryMicronPrice{
			Micron:        row.Micron,
			NonCert:       row.NonCertCleanZARPerKg,
			Cert:          row.CertCleanZARPerKg,
			PctDifference: row.PctDifference,
		})
	}

	return summary
}
