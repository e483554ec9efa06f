package report

import "time"

// Report is the editable document for one auction. It is never stored as a
// single row: Decompose splits it into table payloads and Recompose rebuilds it.
type Report struct {
	Auction           Auction          `json:"auction"`
	Supply            Supply           `json:"supply"`
	HighestPrice      HighestPrice     `json:"highest_price"`
	CertifiedShare    CertifiedShare   `json:"certified_share"`
	Greasy            GreasyStats      `json:"greasy"`
	MarketIndices     MarketIndices    `json:"market_indices"`
	CurrencyRates     CurrencyRates    `json:"currency_rates"`
	MicronPrices      []MicronPriceRow `json:"micron_prices"`
	BuyerPerformance  []BuyerRow       `json:"buyer_performance"`
	BrokerPerformance []BrokerRow      `json:"broker_performance"`
	TopPerformers     []ProvinceGroup  `json:"top_performers"`
	Insights          string           `json:"insights"`
}

type Auction struct {
	ID              string     `json:"id,omitempty"`
	AuctionDate     string     `json:"auction_date"`
	CatalogueName   string     `json:"catalogue_name"`
	CommodityTypeID string     `json:"commodity_type_id"`
	SeasonID        string     `json:"season_id"`
	Status          string     `json:"status,omitempty"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
}

type Supply struct {
	OfferedBales     int     `json:"offered_bales"`
	SoldBales        int     `json:"sold_bales"`
	ClearanceRatePct float64 `json:"clearance_rate_pct"`
}

type HighestPrice struct {
	CentsPerKg float64  `json:"cents_per_kg"`
	Micron     *float64 `json:"micron,omitempty"`
	Producer   string   `json:"producer"`
	Broker     string   `json:"broker"`
	Bales      int      `json:"bales"`
}

type CertifiedShare struct {
	OfferedPct float64 `json:"offered_pct"`
	SoldPct    float64 `json:"sold_pct"`
}

type GreasyStats struct {
	TurnoverZAR      float64 `json:"turnover_zar"`
	VolumeKg         float64 `json:"volume_kg"`
	AvgPriceZARPerKg float64 `json:"avg_price_zar_per_kg"`
}

// MarketIndices holds the indicator values in SA, US and Euro cents clean.
// AutoFilled records that the US and Euro values were derived once from the
// SA value; after that they are left to manual entry.
type MarketIndices struct {
	MerinoSACents    float64 `json:"merino_sa_cents"`
	MerinoUSCents    float64 `json:"merino_us_cents"`
	MerinoEuroCents  float64 `json:"merino_euro_cents"`
	CertifiedSACents float64 `json:"certified_sa_cents"`
	AwexEMIAUCents   float64 `json:"awex_emi_au_cents"`
	ChangePct        float64 `json:"change_pct"`
	AutoFilled       bool    `json:"auto_filled"`
}

type CurrencyRates struct {
	ZARPerUSD float64 `json:"zar_per_usd"`
	ZARPerEUR float64 `json:"zar_per_eur"`
	ZARPerAUD float64 `json:"zar_per_aud"`
}

type MicronPriceRow struct {
	Micron               float64  `json:"micron"`
	NonCertCleanZARPerKg *float64 `json:"non_cert_clean_zar_per_kg"`
	CertCleanZARPerKg    *float64 `json:"cert_clean_zar_per_kg"`
	PctDifference        *float64 `json:"pct_difference"`
}

type BuyerRow struct {
	Buyer    Selection `json:"buyer"`
	Cat      int       `json:"cat"`
	SharePct float64   `json:"share_pct"`
}

type BrokerRow struct {
	Broker              Selection `json:"broker"`
	CatalogueOffering   int       `json:"catalogue_offering"`
	WithdrawnBeforeSale int       `json:"withdrawn_before_sale"`
	WoolOffered         int       `json:"wool_offered"`
	NotSold             int       `json:"not_sold"`
	Sold                int       `json:"sold"`
	SoldOverridden      bool      `json:"sold_overridden"`
	SoldPct             float64   `json:"sold_pct"`
	SoldYTD             int       `json:"sold_ytd"`
}

type ProvinceGroup struct {
	Province  Selection  `json:"province"`
	Producers []Producer `json:"producers"`
}

type Producer struct {
	Position        int     `json:"position"`
	Name            string  `json:"name"`
	District        string  `json:"district"`
	ProducerNumber  string  `json:"producer_number"`
	Bales           int     `json:"bales"`
	Description     string  `json:"description"`
	Micron          float64 `json:"micron"`
	PriceCentsPerKg float64 `json:"price_cents_per_kg"`
	Certification   string  `json:"certification"`
}

// Remove drops the producer at index and renumbers the remaining positions
// from 1.
func (g *ProvinceGroup) Remove(index int) bool {
	if g == nil || index < 0 || index >= len(g.Producers) {
		return false
	}
	g.Producers = append(g.Producers[:index], g.Producers[index+1:]...)
	g.resequence()
	return true
}

func (g *ProvinceGroup) resequence() {
	for i := range g.Producers {
		g.Producers[i].Position = i + 1
	}
}

// Empty returns a report with every collection initialised, which is the
// shape the editor expects for a new auction.
func Empty() Report {
	return Report{
		MicronPrices:      []MicronPriceRow{},
		BuyerPerformance:  []BuyerRow{},
		BrokerPerformance: []BrokerRow{},
		TopPerformers:     []ProvinceGroup{},
	}
}
