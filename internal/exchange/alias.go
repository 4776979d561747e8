package exchange

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnmappedSymbol reports an instrument with no known venue ticker.
var ErrUnmappedSymbol = errors.New("no venue ticker for symbol")

var venueQuotes = []string{"USDT", "USDC", "FDUSD"}

func sanitizeSymbol(symbol string) string {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(symbol))
	for _, r := range symbol {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if r >= 'a' && r <= 'z' {
				r -= 32
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// VenueSymbol maps a forex pair onto the ticker Binance lists it under. Pairs quoted in USD trade
// against USDT there; everything else is passed through sanitized.
func (f *Feed) VenueSymbol(symbol string) string {
	ticker, _ := f.venueTicker(symbol)
	return ticker
}

// venueTicker also reports whether the ticker is known to exist: an explicit override, a USD
// quote rewritten to USDT, or a symbol already quoted in a stablecoin.
func (f *Feed) venueTicker(symbol string) (string, bool) {
	clean := sanitizeSymbol(symbol)
	if v, ok := f.venue[clean]; ok {
		return v, true
	}
	if len(clean) == 6 && strings.HasSuffix(clean, "USD") {
		return clean + "T", true
	}
	for _, quote := range venueQuotes {
		if len(clean) > len(quote) && strings.HasSuffix(clean, quote) {
			return clean, true
		}
	}
	return clean, false
}

// CheckSymbols fails when the binance provider is configured with instruments it cannot map,
// such as crosses like GBPJPY. Those need an entry in feed.venue_symbols.
func (f *Feed) CheckSymbols() error {
	if f.provider != ProviderBinance {
		return nil
	}
	var missing []string
	for _, sym := range f.symbols {
		if _, ok := f.venueTicker(sym); !ok {
			missing = append(missing, sym)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s (set feed.venue_symbols)", ErrUnmappedSymbol, strings.Join(missing, ", "))
	}
	return nil
}

func (f *Feed) venueIndex() map[string]string {
	out := make(map[string]string, len(f.symbols))
	for _, sym := range f.symbols {
		out[f.VenueSymbol(sym)] = sym
	}
	return out
}
