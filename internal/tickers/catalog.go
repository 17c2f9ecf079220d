package tickers

import "strings"

// Popular is the process-wide autocomplete catalog. Order matters: search
// results keep it.
var Popular = NewCatalog(
	"AAPL", "MSFT", "GOOGL", "GOOG", "AMZN", "META", "TSLA", "NVDA", "AMD", "INTC",
	"NFLX", "ADBE", "CRM", "ORCL", "CSCO", "AVGO", "QCOM", "TXN", "INTU", "PYPL",
	"JPM", "BAC", "WFC", "GS", "MS", "C", "BLK", "SCHW", "AXP", "V", "MA",
	"JNJ", "UNH", "PFE", "ABBV", "TMO", "MRK", "ABT", "LLY", "AMGN", "CVS",
	"WMT", "PG", "KO", "PEP", "COST", "NKE", "MCD", "SBUX", "HD", "DIS",
	"XOM", "CVX", "BA", "CAT", "GE", "MMM", "HON", "UPS", "LMT", "RTX",
	"SPY", "QQQ", "DIA", "IWM", "VTI", "VOO",
	"MC.PA", "OR.PA", "SAN.PA", "AIR.PA", "BNP.PA", "SU.PA", "ENGI.PA", "SGO.PA",
	"CA.PA", "ATO.PA", "CS.PA", "BN.PA", "KER.PA", "RMS.PA", "DSY.PA", "EL.PA",
	"VIE.PA", "DG.PA", "PUB.PA", "RI.PA", "SAF.PA", "STM.PA", "URW.PA", "TTE.PA",
	"SAP.DE", "SIE.DE", "VOW3.DE", "BMW.DE", "MBG.DE", "BAS.DE", "ALV.DE", "DTE.DE",
	"BP.L", "SHEL.L", "HSBA.L", "AZN.L", "ULVR.L", "RIO.L", "GSK.L",
	"COIN", "MSTR", "RIOT", "MARA",
)

// Catalog is a read-only, ordered set of known symbols.
type Catalog struct {
	symbols []string
}

func NewCatalog(symbols ...string) Catalog {
	out := make([]string, len(symbols))
	for i, symbol := range symbols {
		out[i] = strings.ToUpper(symbol)
	}
	return Catalog{symbols: out}
}

func (c Catalog) Len() int {
	return len(c.symbols)
}
