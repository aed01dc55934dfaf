package models

// Requests accepted by the dashboard HTTP API.

type FeaturesRequest struct {
	Features string `json:"features" validate:"required"`
}

type SelectModelRequest struct {
	Model string `json:"model" validate:"required,oneof=random_forest baseline smote isolation_forest"`
}

type ThresholdRequest struct {
	Threshold float64 `json:"threshold" validate:"gte=0,lte=1"`
}

type ThresholdQuery struct {
	Threshold float64 `query:"threshold" json:"threshold" default:"0.41" validate:"gte=0,lte=1"`
}
