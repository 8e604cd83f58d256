package models

// OraclePrice is one oracle feed entry.
type OraclePrice struct {
	Symbol      string `json:"symbol"`
	BaseSymbol  string `json:"base_symbol"`
	QuoteSymbol string `json:"quote_symbol"`
	OracleType  string `json:"oracle_type"`
	Price       string `json:"price"`
}
