// Package financials keeps the books of a small trading account: a cash
// ledger, a blotter of trades, and the rules deciding which proposed orders
// the account can afford.
//
// The core types are:
//   - Ledger: an append-only record of signed cash movements, with views
//     sorted by time, running balances, aggregation per calendar period,
//     JSONPath filtering, and pending funds announced for later.
//   - Validator: a single ordered pass over a batch of orders that admits or
//     rejects each one against the capital and holdings left by the orders
//     admitted before it. Rejections are data, not errors.
//   - Portfolio: a Ledger paired with a blotter, where every trade has its
//     cash effect recorded atomically, and from which positions, average
//     prices, valuations and profit metrics are derived.
//
// Records can be persisted as they are created through a Journal: the JSONL
// record format of this package, or the SQLite store of package store.
//
// This package serves as the foundational logic for the `fin` command-line
// tool.
package financials
