package finance

import "time"

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// threeDaySource returns the three-session basket used across tests:
// SPY returns [0.1,-0.1], AAPL [0.2,-0.2], MSFT [-0.05,0.1].
func threeDaySource() *StaticSource {
	return &StaticSource{Series: map[string]*TickerSeries{
		"SPY":  SeriesFromPrices("SPY", day0, 100, 110, 99),
		"AAPL": SeriesFromPrices("AAPL", day0, 50, 60, 48),
		"MSFT": SeriesFromPrices("MSFT", day0, 200, 190, 209),
	}}
}

func threeDayFrame() *PriceFrame {
	src := threeDaySource()
	return NewPriceFrame([]*TickerSeries{src.Series["SPY"], src.Series["AAPL"], src.Series["MSFT"]})
}
