package report

import (
	"sort"

	"woolreport/internal/models"
)

// Rows is what the store returns for one auction. Collections whose has_*
// flag is false on Auction are ignored.
type Rows struct {
	Auction           models.Auction
	MicronPrices      []models.MicronPrice
	BuyerPerformance  []models.BuyerPerformance
	BrokerPerformance []models.BrokerPerformance
	TopPerformers     []models.TopPerformer
	Insight           *models.MarketInsight
}

// Recompose rebuilds the editable report from stored rows. The resolver turns
// foreign keys back into display names; derived fields are recalculated.
func Recompose(rows Rows, resolver *Resolver, previous PreviousPeriod) Report {
	a := rows.Auction
	r := Empty()

	r.Auction = Auction{
		ID:              a.ID,
		CatalogueName:   FormatCatalogue(a.CataloguePrefix, a.CatalogueNumber),
		CommodityTypeID: derefString(a.CommodityTypeID),
		SeasonID:        derefString(a.SeasonID),
		Status:          a.Status,
		PublishedAt:     a.PublishedAt,
	}
	if a.AuctionDate != nil {
		r.Auction.AuctionDate = a.AuctionDate.UTC().Format(DateLayout)
	}

	r.Supply = Supply{
		OfferedBales:     a.OfferedBales,
		SoldBales:        a.SoldBales,
		ClearanceRatePct: a.ClearanceRatePct,
	}
	r.HighestPrice = HighestPrice{
		CentsPerKg: a.HighestPriceCentsPerKg,
		Micron:     copyFloat(a.HighestPriceMicron),
		Producer:   derefString(a.HighestPriceProducer),
		Broker:     derefString(a.HighestPriceBroker),
		Bales:      a.HighestPriceBales,
	}
	r.CertifiedShare = CertifiedShare{OfferedPct: a.CertifiedOfferedPct, SoldPct: a.CertifiedSoldPct}
	r.Greasy = GreasyStats{
		TurnoverZAR:      a.GreasyTurnoverZAR,
		VolumeKg:         a.GreasyVolumeKg,
		AvgPriceZARPerKg: a.GreasyAvgPriceZARPerKg,
	}
	r.MarketIndices = MarketIndices{
		MerinoSACents:    a.MerinoIndicatorSACents,
		MerinoUSCents:    a.MerinoIndicatorUSCents,
		MerinoEuroCents:  a.MerinoIndicatorEuroCents,
		CertifiedSACents: a.CertifiedIndicatorSACents,
		AwexEMIAUCents:   a.AwexEMIAUCents,
		ChangePct:        a.IndicatorChangePct,
		AutoFilled:       a.IndicatorsAutoFilled,
	}
	r.CurrencyRates = CurrencyRates{ZARPerUSD: a.ZARPerUSD, ZARPerEUR: a.ZARPerEUR, ZARPerAUD: a.ZARPerAUD}

	if a.HasMicronPrices {
		prices := append([]models.MicronPrice(nil), rows.MicronPrices...)
		sort.SliceStable(prices, func(i, j int) bool { return prices[i].Micron < prices[j].Micron })
		for _, row := range prices {
			r.MicronPrices = append(r.MicronPrices, MicronPriceRow{
				Micron:               row.Micron,
				NonCertCleanZARPerKg: copyFloat(row.NonCertCleanZARPerKg),
				CertCleanZARPerKg:    copyFloat(row.CertCleanZARPerKg),
				PctDifference:        copyFloat(row.PctDifference),
			})
		}
	}

	if a.HasBuyerPerformance {
		buyers := append([]models.BuyerPerformance(nil), rows.BuyerPerformance...)
		sort.SliceStable(buyers, func(i, j int) bool { return buyers[i].Position < buyers[j].Position })
		for _, row := range buyers {
			r.BuyerPerformance = append(r.BuyerPerformance, BuyerRow{
				Buyer:    Existing(derefString(row.BuyerID), resolver.Name(KindBuyer, row.BuyerID)),
				Cat:      row.Cat,
				SharePct: row.SharePct,
			})
		}
	}

	if a.HasBrokerPerformance {
		brokers := append([]models.BrokerPerformance(nil), rows.BrokerPerformance...)
		sort.SliceStable(brokers, func(i, j int) bool { return brokers[i].Position < brokers[j].Position })
		for _, row := range brokers {
			r.BrokerPerformance = append(r.BrokerPerformance, BrokerRow{
				Broker:              Existing(derefString(row.BrokerID), resolver.Name(KindBroker, row.BrokerID)),
				CatalogueOffering:   row.CatalogueOffering,
				WithdrawnBeforeSale: row.WithdrawnBeforeSale,
				WoolOffered:         row.WoolOffered,
				NotSold:             row.NotSold,
				Sold:                row.Sold,
				SoldOverridden:      row.SoldOverridden,
				SoldPct:             row.SoldPct,
				SoldYTD:             row.SoldYTD,
			})
		}
	}

	if a.HasTopPerformers {
		r.TopPerformers = groupTopPerformers(rows.TopPerformers, resolver)
	}

	if a.HasMarketInsights && rows.Insight != nil {
		r.Insights = rows.Insight.Content
	}

	Recalculate(&r, previous)
	return r
}

// groupTopPerformers rebuilds province groups ordered by province name, each
// holding its producers in position order. Rows without a province land in a
// trailing unnamed group.
func groupTopPerformers(rows []models.TopPerformer, resolver *Resolver) []ProvinceGroup {
	type bucket struct {
		selection Selection
		rows      []models.TopPerformer
	}

	buckets := make(map[string]*bucket)
	keys := make([]string, 0)
	for _, row := range rows {
		key := derefString(row.ProvinceID)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{selection: Existing(key, resolver.Name(KindProvince, row.ProvinceID))}
			buckets[key] = b
			keys = append(keys, key)
		}
		b.rows = append(b.rows, row)
	}

	sort.SliceStable(keys, func(i, j int) bool {
		left, right := buckets[keys[i]].selection, buckets[keys[j]].selection
		if (left.ID == "") != (right.ID == "") {
			return left.ID != ""
		}
		return NormalizeName(left.Name) < NormalizeName(right.Name)
	})

	groups := make([]ProvinceGroup, 0, len(keys))
	for _, key := range keys {
		b := buckets[key]
		sort.SliceStable(b.rows, func(i, j int) bool { return b.rows[i].Position < b.rows[j].Position })
		group := ProvinceGroup{Province: b.selection, Producers: make([]Producer, 0, len(b.rows))}
		for _, row := range b.rows {
			certification := ""
			if row.CertificationID != nil {
				certification = CertificationRWS
			}
			group.Producers = append(group.Producers, Producer{
				Position:        row.Position,
				Name:            row.ProducerName,
				District:        row.District,
				ProducerNumber:  row.ProducerNumber,
				Bales:           row.Bales,
				Description:     row.Description,
				Micron:          row.Micron,
				PriceCentsPerKg: row.PriceCentsPerKg,
				Certification:   certification,
			})
		}
		group.resequence()
		groups = append(groups, group)
	}

	return groups
}
