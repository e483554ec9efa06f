package models

import "time"

const (
	AuctionStatusDraft     = "draft"
	AuctionStatusPublished = "published"
	AuctionStatusArchived  = "archived"
)

type Auction struct {
	ID              string     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AuctionDate     *time.Time `gorm:"type:date" json:"auction_date,omitempty"`
	CataloguePrefix string     `gorm:"type:text;not null" json:"catalogue_prefix"`
	CatalogueNumber string     `gorm:"type:text;not null" json:"catalogue_number"`
	CommodityTypeID *string    `gorm:"type:uuid" json:"commodity_type_id,omitempty"`
	SeasonID        *string    `gorm:"type:uuid;index" json:"season_id,omitempty"`
	Status          string     `gorm:"type:text;not null;default:draft" json:"status"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`

	OfferedBales     int     `gorm:"type:int;not null;default:0" json:"offered_bales"`
	SoldBales        int     `gorm:"type:int;not null;default:0" json:"sold_bales"`
	ClearanceRatePct float64 `gorm:"type:double precision;not null;default:0" json:"clearance_rate_pct"`

	HighestPriceCentsPerKg float64  `gorm:"type:double precision;not null;default:0" json:"highest_price_cents_per_kg"`
	HighestPriceMicron     *float64 `gorm:"type:double precision" json:"highest_price_micron,omitempty"`
	HighestPriceProducer   *string  `gorm:"type:text" json:"highest_price_producer,omitempty"`
	HighestPriceBroker     *string  `gorm:"type:text" json:"highest_price_broker,omitempty"`
	HighestPriceBales      int      `gorm:"type:int;not null;default:0" json:"highest_price_bales"`

	CertifiedOfferedPct float64 `gorm:"type:double precision;not null;default:0" json:"certified_offered_pct"`
	CertifiedSoldPct    float64 `gorm:"type:double precision;not null;default:0" json:"certified_sold_pct"`

	GreasyTurnoverZAR      float64 `gorm:"column:greasy_turnover_zar;type:double precision;not null;default:0" json:"greasy_turnover_zar"`
	GreasyVolumeKg         float64 `gorm:"type:double precision;not null;default:0" json:"greasy_volume_kg"`
	GreasyAvgPriceZARPerKg float64 `gorm:"column:greasy_avg_price_zar_per_kg;type:double precision;not null;default:0" json:"greasy_avg_price_zar_per_kg"`

	MerinoIndicatorSACents    float64 `gorm:"column:merino_indicator_sa_cents;type:double precision;not null;default:0" json:"merino_indicator_sa_cents"`
	MerinoIndicatorUSCents    float64 `gorm:"column:merino_indicator_us_cents;type:double precision;not null;default:0" json:"merino_indicator_us_cents"`
	MerinoIndicatorEuroCents  float64 `gorm:"column:merino_indicator_euro_cents;type:double precision;not null;default:0" json:"merino_indicator_euro_cents"`
	CertifiedIndicatorSACents float64 `gorm:"column:certified_indicator_sa_cents;type:double precision;not null;default:0" json:"certified_indicator_sa_cents"`
	AwexEMIAUCents            float64 `gorm:"column:awex_emi_au_cents;type:double precision;not null;default:0" json:"awex_emi_au_cents"`
	IndicatorChangePct        float64 `gorm:"type:double precision;not null;default:0" json:"indicator_change_pct"`
	IndicatorsAutoFilled      bool    `gorm:"not null;default:false" json:"indicators_auto_filled"`

	ZARPerUSD float64 `gorm:"column:zar_per_usd;type:double precision;not null;default:0" json:"zar_per_usd"`
	ZARPerEUR float64 `gorm:"column:zar_per_eur;type:double precision;not null;default:0" json:"zar_per_eur"`
	ZARPerAUD float64 `gorm:"column:zar_per_aud;type:double precision;not null;default:0" json:"zar_per_aud"`

	HasMicronPrices      bool    `gorm:"not null;default:false" json:"has_micron_prices"`
	HasBuyerPerformance  bool    `gorm:"not null;default:false" json:"has_buyer_performance"`
	HasBrokerPerformance bool    `gorm:"not null;default:false" json:"has_broker_performance"`
	HasTopPerformers     bool    `gorm:"not null;default:false" json:"has_top_performers"`
	HasMarketInsights    bool    `gorm:"not null;default:false" json:"has_market_insights"`
	MarketInsightID      *string `gorm:"type:uuid" json:"market_insight_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
