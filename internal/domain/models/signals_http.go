package models

// Requests for research HTTP endpoints. Defined in domain for consistency and reuse.

type ResearchRequest struct {
	Coin          string `param:"coin" json:"coin" validate:"required,max=64,coinid"`
	Days          int    `query:"days" json:"days" default:"30" validate:"gte=1,lte=365"`
	IndicatorDays int    `query:"indicator_days" json:"indicator_days" default:"14" validate:"gte=1,lte=365"`
	Report        bool   `query:"report" json:"report"`
}
