package models

import "time"

type MicronPrice struct {
	ID                   string   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AuctionID            string   `gorm:"type:uuid;not null;index" json:"auction_id"`
	Micron               float64  `gorm:"type:double precision;not null" json:"micron"`
	NonCertCleanZARPerKg *float64 `gorm:"column:non_cert_clean_zar_per_kg;type:double precision" json:"non_cert_clean_zar_per_kg,omitempty"`
	CertCleanZARPerKg    *float64 `gorm:"column:cert_clean_zar_per_kg;type:double precision" json:"cert_clean_zar_per_kg,omitempty"`
	PctDifference        *float64 `gorm:"type:double precision" json:"pct_difference,omitempty"`
}

type BuyerPerformance struct {
	ID        string  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AuctionID string  `gorm:"type:uuid;not null;index" json:"auction_id"`
	BuyerID   *string `gorm:"type:uuid" json:"buyer_id,omitempty"`
	Position  int     `gorm:"type:int;not null" json:"position"`
	Cat       int     `gorm:"type:int;not null" json:"cat"`
	SharePct  float64 `gorm:"type:double precision;not null" json:"share_pct"`
}

func (BuyerPerformance) TableName() string {
	return "buyer_performance"
}

type BrokerPerformance struct {
	ID                  string  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AuctionID           string  `gorm:"type:uuid;not null;index" json:"auction_id"`
	BrokerID            *string `gorm:"type:uuid" json:"broker_id,omitempty"`
	Position            int     `gorm:"type:int;not null" json:"position"`
	CatalogueOffering   int     `gorm:"type:int;not null" json:"catalogue_offering"`
	WithdrawnBeforeSale int     `gorm:"type:int;not null" json:"withdrawn_before_sale"`
	WoolOffered         int     `gorm:"type:int;not null" json:"wool_offered"`
	NotSold             int     `gorm:"type:int;not null" json:"not_sold"`
	Sold                int     `gorm:"type:int;not null" json:"sold"`
	SoldOverridden      bool    `gorm:"not null;default:false" json:"sold_overridden"`
	SoldPct             float64 `gorm:"type:double precision;not null" json:"sold_pct"`
	SoldYTD             int     `gorm:"column:sold_ytd;type:int;not null" json:"sold_ytd"`
}

func (BrokerPerformance) TableName() string {
	return "broker_performance"
}

type TopPerformer struct {
	ID              string  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AuctionID       string  `gorm:"type:uuid;not null;index" json:"auction_id"`
	ProvinceID      *string `gorm:"type:uuid" json:"province_id,omitempty"`
	CertificationID *string `gorm:"type:uuid" json:"certification_id,omitempty"`
	Position        int     `gorm:"type:int;not null" json:"position"`
	ProducerName    string  `gorm:"type:text;not null" json:"producer_name"`
	District        string  `gorm:"type:text;not null" json:"district"`
	ProducerNumber  string  `gorm:"type:text;not null" json:"producer_number"`
	Bales           int     `gorm:"type:int;not null" json:"bales"`
	Description     string  `gorm:"type:text;not null" json:"description"`
	Micron          float64 `gorm:"type:double precision;not null" json:"micron"`
	PriceCentsPerKg float64 `gorm:"type:double precision;not null" json:"price_cents_per_kg"`
}

type MarketInsight struct {
	ID        string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AuctionID string    `gorm:"type:uuid;not null;uniqueIndex" json:"auction_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
