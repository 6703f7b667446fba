package marketdata

import (
	"github.com/jonandersen/apca/pkg/osi"
)

// JoinKey maps a contract to the key both feeds are joined on.
type JoinKey func(osi.Contract) string

// BySymbol joins on the ticker alone. Use it for stock feeds.
func BySymbol(c osi.Contract) string {
	return c.Ticker
}

// ByContract joins on the full contract identity. Use it for option feeds.
func ByContract(c osi.Contract) string {
	s, err := osi.Encode(c)
	if err != nil {
		// Unencodable identities still need a stable, distinct key.
		return c.Ticker + "|" + c.Expiration.Format("2006-01-02") + "|" + c.Type.String() + "|" + c.Strike.Decimal.String()
	}
	return s
}

// Reconcile full-outer-joins trades and quotes on key.
//
// The trade feed wins on shared columns except the last price: a finite
// trade price is used when present, otherwise the quote midpoint rounded to
// cents, otherwise the row is emitted incomplete. Rows come out in order of
// first appearance, trades before quotes.
func Reconcile(trades []Trade, quotes []Quote, key JoinKey) []Row {
	if key == nil {
		key = ByContract
	}

	index := make(map[string]int, len(trades)+len(quotes))
	rows := make([]Row, 0, len(trades)+len(quotes))

	lookup := func(c osi.Contract) *Row {
		k := key(c)
		if i, ok := index[k]; ok {
			return &rows[i]
		}
		index[k] = len(rows)
		rows = append(rows, Row{Contract: c})
		return &rows[len(rows)-1]
	}

	for _, t := range trades {
		row := lookup(t.Contract)
		row.HasTrade = true
		row.Last = t.Last
		row.Size = t.Size
		row.Timestamp = t.Timestamp
	}

	for _, q := range quotes {
		row := lookup(q.Contract)
		row.HasQuote = true
		row.Bid = q.Bid
		row.Ask = q.Ask
		row.BidSize = q.BidSize
		row.AskSize = q.AskSize
		if !row.HasTrade || row.Timestamp.IsZero() {
			row.Timestamp = q.Timestamp
		}
	}

	for i := range rows {
		if !rows[i].Last.Valid {
			rows[i].Last = Mid(rows[i].Bid, rows[i].Ask)
		}
	}

	return rows
}

// Partition groups rows by key, preserving first-seen order of keys and the
// relative order of rows within a group.
func Partition(rows []Row, key func(osi.Contract) string) (keys []string, groups map[string][]Row) {
	groups = make(map[string][]Row)
	for _, r := range rows {
		k := key(r.Contract)
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], r)
	}
	return keys, groups
}
