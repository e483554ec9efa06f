package report

import (
	"fmt"
	"strings"
	"time"

	"woolreport/internal/models"
)

// Payload is the set of rows one report persists to. Sub-collection rows carry
// the auction id of the report, which is empty for a report not yet created.
type Payload struct {
	Auction           models.Auction
	MicronPrices      []models.MicronPrice
	BuyerPerformance  []models.BuyerPerformance
	BrokerPerformance []models.BrokerPerformance
	TopPerformers     []models.TopPerformer
	Insight           *models.MarketInsight
	Misses            []Miss
}

func Decompose(r Report, resolver *Resolver) (Payload, error) {
	if resolver == nil {
		return Payload{}, fmt.Errorf("decompose report: resolver is nil")
	}
	if err := pendingSelections(r); err != nil {
		return Payload{}, err
	}

	auction, err := decomposeAuction(r)
	if err != nil {
		return Payload{}, err
	}
	auctionID := r.Auction.ID

	payload := Payload{
		Auction:           auction,
		MicronPrices:      make([]models.MicronPrice, 0, len(r.MicronPrices)),
		BuyerPerformance:  make([]models.BuyerPerformance, 0, len(r.BuyerPerformance)),
		BrokerPerformance: make([]models.BrokerPerformance, 0, len(r.BrokerPerformance)),
		TopPerformers:     []models.TopPerformer{},
	}

	for _, row := range r.MicronPrices {
		if row.NonCertCleanZARPerKg == nil && row.CertCleanZARPerKg == nil {
			continue
		}
		payload.MicronPrices = append(payload.MicronPrices, models.MicronPrice{
			AuctionID:            auctionID,
			Micron:               row.Micron,
			NonCertCleanZARPerKg: copyFloat(row.NonCertCleanZARPerKg),
			CertCleanZARPerKg:    copyFloat(row.CertCleanZARPerKg),
			PctDifference:        copyFloat(row.PctDifference),
		})
	}

	for i, row := range r.BuyerPerformance {
		payload.BuyerPerformance = append(payload.BuyerPerformance, models.BuyerPerformance{
			AuctionID: auctionID,
			BuyerID:   resolver.Resolve(KindBuyer, row.Buyer),
			Position:  i + 1,
			Cat:       row.Cat,
			SharePct:  row.SharePct,
		})
	}

	for i, row := range r.BrokerPerformance {
		payload.BrokerPerformance = append(payload.BrokerPerformance, models.BrokerPerformance{
			AuctionID:           auctionID,
			BrokerID:            resolver.Resolve(KindBroker, row.Broker),
			Position:            i + 1,
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

	for _, group := range r.TopPerformers {
		provinceID := resolver.Resolve(KindProvince, group.Province)
		for i, producer := range group.Producers {
			payload.TopPerformers = append(payload.TopPerformers, models.TopPerformer{
				AuctionID:       auctionID,
				ProvinceID:      copyString(provinceID),
				CertificationID: resolver.ResolveCertification(producer.Certification),
				Position:        i + 1,
				ProducerName:    producer.Name,
				District:        producer.District,
				ProducerNumber:  producer.ProducerNumber,
				Bales:           producer.Bales,
				Description:     producer.Description,
				Micron:          producer.Micron,
				PriceCentsPerKg: producer.PriceCentsPerKg,
			})
		}
	}

	if text := strings.TrimSpace(r.Insights); text != "" {
		payload.Insight = &models.MarketInsight{AuctionID: auctionID, Content: text}
	}

	payload.Auction.HasMicronPrices = len(payload.MicronPrices) > 0
	payload.Auction.HasBuyerPerformance = len(payload.BuyerPerformance) > 0
	payload.Auction.HasBrokerPerformance = len(payload.BrokerPerformance) > 0
	payload.Auction.HasTopPerformers = len(payload.TopPerformers) > 0
	payload.Auction.HasMarketInsights = payload.Insight != nil
	payload.Misses = resolver.Misses()

	return payload, nil
}

func decomposeAuction(r Report) (models.Auction, error) {
	prefix, number := ParseCatalogue(r.Auction.CatalogueName)

	auction := models.Auction{
		ID:              r.Auction.ID,
		CataloguePrefix: prefix,
		CatalogueNumber: number,
		CommodityTypeID: optionalString(r.Auction.CommodityTypeID),
		SeasonID:        optionalString(r.Auction.SeasonID),
		Status:          r.Auction.Status,
		PublishedAt:     r.Auction.PublishedAt,

		OfferedBales:     r.Supply.OfferedBales,
		SoldBales:        r.Supply.SoldBales,
		ClearanceRatePct: r.Supply.ClearanceRatePct,

		HighestPriceCentsPerKg: r.HighestPrice.CentsPerKg,
		HighestPriceMicron:     copyFloat(r.HighestPrice.Micron),
		HighestPriceProducer:   optionalString(r.HighestPrice.Producer),
		HighestPriceBroker:     optionalString(r.HighestPrice.Broker),
		HighestPriceBales:      r.HighestPrice.Bales,

		CertifiedOfferedPct: r.CertifiedShare.OfferedPct,
		CertifiedSoldPct:    r.CertifiedShare.SoldPct,

		GreasyTurnoverZAR:      r.Greasy.TurnoverZAR,
		GreasyVolumeKg:         r.Greasy.VolumeKg,
		GreasyAvgPriceZARPerKg: r.Greasy.AvgPriceZARPerKg,

		MerinoIndicatorSACents:    r.MarketIndices.MerinoSACents,
		MerinoIndicatorUSCents:    r.MarketIndices.MerinoUSCents,
		MerinoIndicatorEuroCents:  r.MarketIndices.MerinoEuroCents,
		CertifiedIndicatorSACents: r.MarketIndices.CertifiedSACents,
		AwexEMIAUCents:            r.MarketIndices.AwexEMIAUCents,
		IndicatorChangePct:        r.MarketIndices.ChangePct,
		IndicatorsAutoFilled:      r.MarketIndices.AutoFilled,

		ZARPerUSD: r.CurrencyRates.ZARPerUSD,
		ZARPerEUR: r.CurrencyRates.ZARPerEUR,
		ZARPerAUD: r.CurrencyRates.ZARPerAUD,
	}

	if date := strings.TrimSpace(r.Auction.AuctionDate); date != "" {
		parsed, err := time.Parse(DateLayout, date)
		if err != nil {
			return models.Auction{}, fmt.Errorf("parse auction date %q: %w", date, err)
		}
		auction.AuctionDate = &parsed
	}

	return auction, nil
}

func pendingSelections(r Report) error {
	for i, row := range r.BuyerPerformance {
		if row.Buyer.Pending() {
			return fmt.Errorf("buyer row %d: %w", i, ErrPendingCreation)
		}
	}
	for i, row := range r.BrokerPerformance {
		if row.Broker.Pending() {
			return fmt.Errorf("broker row %d: %w", i, ErrPendingCreation)
		}
	}
	for i, group := range r.TopPerformers {
		if group.Province.Pending() {
			return fmt.Errorf("province group %d: %w", i, ErrPendingCreation)
		}
	}
	return nil
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func copyString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func copyFloat(value *float64) *float64 {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
