package report

import (
	"sort"

	"github.com/shopspring/decimal"
)

type BrokerField string

const (
	BrokerFieldNone                BrokerField = ""
	BrokerFieldBroker              BrokerField = "broker"
	BrokerFieldCatalogueOffering   BrokerField = "catalogue_offering"
	BrokerFieldWithdrawnBeforeSale BrokerField = "withdrawn_before_sale"
	BrokerFieldNotSold             BrokerField = "not_sold"
	BrokerFieldSold                BrokerField = "sold"
)

// PreviousPeriod carries the cumulative figures of the prior auction in the
// same season. BrokerSoldYTD is keyed by broker id.
type PreviousPeriod struct {
	BrokerSoldYTD map[string]int

	brokerIDs    map[string]string
	knownBrokers map[string]bool
}

// NewPreviousPeriod indexes brokers so BrokerYTD finds a row the same way
// the Resolver does: a known attached id wins, otherwise the name is matched.
func NewPreviousPeriod(soldYTD map[string]int, brokers []Reference) PreviousPeriod {
	p := PreviousPeriod{
		BrokerSoldYTD: soldYTD,
		brokerIDs:     make(map[string]string, len(brokers)),
		knownBrokers:  make(map[string]bool, len(brokers)),
	}
	for _, ref := range brokers {
		if ref.ID == "" {
			continue
		}
		p.knownBrokers[ref.ID] = true
		key := NormalizeName(ref.Name)
		if _, exists := p.brokerIDs[key]; key != "" && !exists {
			p.brokerIDs[key] = ref.ID
		}
	}
	return p
}

func (p PreviousPeriod) BrokerYTD(sel Selection) *int {
	if p.BrokerSoldYTD == nil || sel.Pending() {
		return nil
	}
	id := sel.ID
	if !p.knownBrokers[id] {
		id = p.brokerIDs[NormalizeName(sel.Name)]
	}
	if id == "" {
		return nil
	}
	value, ok := p.BrokerSoldYTD[id]
	if !ok {
		return nil
	}
	return &value
}

func percent(part float64, whole float64) float64 {
	value, _ := decimal.NewFromFloat(part).
		Div(decimal.NewFromFloat(whole)).
		Mul(decimal.NewFromInt(100)).
		Round(2).
		Float64()
	return value
}

func ClearanceRate(offeredBales int, soldBales int) float64 {
	if offeredBales <= 0 {
		return 0
	}
	return percent(float64(soldBales), float64(offeredBales))
}

// PctDifference is the certified premium over non-certified price. It is nil
// unless both prices are present and positive.
func PctDifference(nonCert *float64, cert *float64) *float64 {
	if nonCert == nil || cert == nil || *nonCert <= 0 || *cert <= 0 {
		return nil
	}
	diff := percent(*cert-*nonCert, *nonCert)
	return &diff
}

func ApplyBuyerShares(rows []BuyerRow) {
	total := 0
	for _, row := range rows {
		total += row.Cat
	}
	for i := range rows {
		if total <= 0 {
			rows[i].SharePct = 0
			continue
		}
		rows[i].SharePct = percent(float64(rows[i].Cat), float64(total))
	}
}

// ApplyBrokerEdit recomputes the broker chain after changed was edited.
// Editing sold marks it as overridden so later recalculations keep it;
// editing not_sold hands sold back to the derivation.
func ApplyBrokerEdit(row *BrokerRow, changed BrokerField, previousYTD *int) {
	if row == nil {
		return
	}
	switch changed {
	case BrokerFieldSold:
		row.SoldOverridden = true
	case BrokerFieldNotSold:
		row.SoldOverridden = false
	}

	row.WoolOffered = row.CatalogueOffering - row.WithdrawnBeforeSale
	if changed != BrokerFieldSold && !row.SoldOverridden {
		row.Sold = row.WoolOffered - row.NotSold
	}
	if row.WoolOffered > 0 {
		row.SoldPct = percent(float64(row.Sold), float64(row.WoolOffered))
	} else {
		row.SoldPct = 0
	}
	if previousYTD != nil {
		row.SoldYTD = row.Sold + *previousYTD
	} else {
		row.SoldYTD = row.Sold
	}
}

// ConvertIndicator converts SA cents clean into a foreign currency's cents
// clean given the rand price of one unit of that currency.
func ConvertIndicator(saCents float64, zarPerUnit float64) float64 {
	if saCents <= 0 || zarPerUnit <= 0 {
		return 0
	}
	value, _ := decimal.NewFromFloat(saCents).Div(decimal.NewFromFloat(zarPerUnit)).Round(2).Float64()
	return value
}

// AutoFillIndicators derives the US and Euro indicators from the SA value
// once. It does nothing after the first fill, or when a user already typed
// either value.
func AutoFillIndicators(indices *MarketIndices, rates CurrencyRates) bool {
	if indices == nil || indices.AutoFilled {
		return false
	}
	if indices.MerinoUSCents != 0 || indices.MerinoEuroCents != 0 {
		return false
	}
	if indices.MerinoSACents <= 0 || rates.ZARPerUSD <= 0 || rates.ZARPerEUR <= 0 {
		return false
	}
	indices.MerinoUSCents = ConvertIndicator(indices.MerinoSACents, rates.ZARPerUSD)
	indices.MerinoEuroCents = ConvertIndicator(indices.MerinoSACents, rates.ZARPerEUR)
	indices.AutoFilled = true
	return true
}

// Recalculate refreshes every derived field of r. It runs before a save and
// after a load so both paths show the same values.
func Recalculate(r *Report, previous PreviousPeriod) {
	if r == nil {
		return
	}
	r.Supply.ClearanceRatePct = ClearanceRate(r.Supply.OfferedBales, r.Supply.SoldBales)
	// Micron rows are kept in micron order, the order they reload in.
	sort.SliceStable(r.MicronPrices, func(i, j int) bool { return r.MicronPrices[i].Micron < r.MicronPrices[j].Micron })
	for i := range r.MicronPrices {
		row := &r.MicronPrices[i]
		row.PctDifference = PctDifference(row.NonCertCleanZARPerKg, row.CertCleanZARPerKg)
	}
	ApplyBuyerShares(r.BuyerPerformance)
	for i := range r.BrokerPerformance {
		row := &r.BrokerPerformance[i]
		ApplyBrokerEdit(row, BrokerFieldNone, previous.BrokerYTD(row.Broker))
	}
	for i := range r.TopPerformers {
		r.TopPerformers[i].resequence()
	}
	AutoFillIndicators(&r.MarketIndices, r.CurrencyRates)
}
