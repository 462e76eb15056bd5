// Package model defines the data types shared across the trust and
// verification engines.
package model

import "time"

// VerificationStatus is the lifecycle state of a price submission.
type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending"
	StatusVerified VerificationStatus = "verified"
	StatusRejected VerificationStatus = "rejected"
)

// WeightUnit is a canonical quantity unit for a submitted product.
type WeightUnit string

const (
	UnitKilogram   WeightUnit = "kg"
	UnitGram       WeightUnit = "g"
	UnitLitre      WeightUnit = "lt"
	UnitMillilitre WeightUnit = "ml"
	UnitPiece      WeightUnit = "adet"
)

// Location is where a price was observed. Coordinates are optional;
// distance computations return nil when they are absent.
type Location struct {
	City      string   `json:"city"`
	District  string   `json:"district,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// PriceSubmission is a single user-reported price observation for a
// product at a market.
type PriceSubmission struct {
	ID                    string             `json:"id"`
	UserID                string             `json:"user_id"`
	ProductName           string             `json:"product_name"`
	NormalizedProductName string             `json:"normalized_product_name"`
	Barcode               string             `json:"barcode,omitempty"`
	Price                 float64            `json:"price"`
	Weight                float64            `json:"weight"`
	WeightUnit            WeightUnit         `json:"weight_unit"`
	MarketName            string             `json:"market_name"`
	MarketBranch          string             `json:"market_branch,omitempty"`
	Location              Location           `json:"location"`
	Category              string             `json:"category,omitempty"`
	ReceiptImageURL       string             `json:"receipt_image_url,omitempty"`
	SubmittedAt           time.Time          `json:"submitted_at"`
	VerificationStatus    VerificationStatus `json:"verification_status"`
	VerifiedBy            []string           `json:"verified_by,omitempty"`
	TrustScore            float64            `json:"trust_score"`
}

// HasReceipt reports whether the submission carries a receipt image.
func (s *PriceSubmission) HasReceipt() bool {
	return s.ReceiptImageURL != ""
}

// GroupKey identifies the peer group a submission belongs to for
// cross-validation: same normalized product, market, and city.
func (s *PriceSubmission) GroupKey() string {
	return s.NormalizedProductName + "|" + s.MarketName + "|" + s.Location.City
}

// ValidationResult is the outcome of static intake validation.
// Warnings never block acceptance.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}
