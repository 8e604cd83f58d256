package models

// BankBalance is a chain-level balance held by an address.
type BankBalance struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// SubaccountDeposit is the deposit state of one denom in a subaccount.
type SubaccountDeposit struct {
	TotalBalance     string `json:"total_balance"`
	AvailableBalance string `json:"available_balance"`
}

// SubaccountBalance is one subaccount/denom balance pair.
type SubaccountBalance struct {
	SubaccountID string            `json:"subaccount_id"`
	Denom        string            `json:"denom"`
	Deposit      SubaccountDeposit `json:"deposit"`
}

// Portfolio summarises an address: bank balances, subaccounts and how many
// derivative positions are open.
type Portfolio struct {
	Address        string              `json:"address"`
	BankBalances   []BankBalance       `json:"bank_balances"`
	Subaccounts    []SubaccountBalance `json:"subaccounts"`
	PositionsCount int                 `json:"positions_count"`
}

// Position is one open derivative position.
type Position struct {
	MarketID      string `json:"market_id"`
	Ticker        string `json:"ticker"`
	Direction     string `json:"direction"`
	Quantity      string `json:"quantity"`
	EntryPrice    string `json:"entry_price"`
	MarkPrice     string `json:"mark_price"`
	Margin        string `json:"margin"`
	UnrealizedPnl string `json:"unrealized_pnl"`
	SubaccountID  string `json:"subaccount_id"`
}

// PositionsPage lists the open positions of an address.
type PositionsPage struct {
	Address   string     `json:"address"`
	Positions []Position `json:"positions"`
	Total     int        `json:"total"`
}
