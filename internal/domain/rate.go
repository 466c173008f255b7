package domain

type CoinCapAsset struct {
	ID                string `json:"id"`
	Rank              string `json:"rank"`
	Symbol            string `json:"symbol"`
	Name              string `json:"name"`
	Supply            string `json:"supply"`
	MarketCapUSD      string `json:"marketCapUsd"`
	PriceUSD          string `json:"priceUsd"`
	ChangePercent24Hr string `json:"changePercent24Hr"`
}

type ExchangeRate struct {
	CryptoCurrency string  `json:"crypto_currency"`
	FiatCurrency   string  `json:"fiat_currency"`
	Rate           float64 `json:"rate"`
	LastUpdated    string  `json:"last_updated"`
}
