package fetcher

// Nasdaq100 is the default screening universe.
var Nasdaq100 = []string{
	"AAPL", "MSFT", "AMZN", "NVDA", "GOOGL", "GOOG", "META", "TSLA",
	"AVGO", "COST", "NFLX", "AMD", "ADBE", "PEP", "CSCO", "TMUS",
	"LIN", "INTC", "INTU", "CMCSA", "AMGN", "TXN", "MU", "QCOM",
	"ISRG", "HON", "AMAT", "BKNG", "LRCX", "VRTX", "REGN", "ADI",
	"KLAC", "PANW", "ADP", "SBUX", "MDLZ", "SNPS", "GILD", "MELI",
	"PYPL", "CDNS", "ASML", "CRWD", "CTAS", "MAR", "ABNB", "ORLY",
	"CSX", "MRVL", "MNST", "NXPI", "FTNT", "PCAR", "WDAY", "CEG",
	"DASH", "ROST", "DXCM", "ODFL", "ROP", "AEP", "CPRT", "FANG",
	"KDP", "FAST", "PAYX", "IDXX", "CTSH", "EA", "KHC", "GEHC",
	"BKR", "VRSK", "EXC", "LULU", "MCHP", "XEL", "ON", "CCEP",
	"TTD", "TEAM", "CDW", "DDOG", "CSGP", "ANSS", "GFS", "BIIB",
	"ZS", "ILMN", "WBD", "MRNA", "SIRI", "DLTR", "MDB", "SMCI",
	"ARM", "COIN", "PDD", "JD",
}
