// Package bankfeed ingests delimited text exports of bank and brokerage
// activity, normalizes them into typed transactions and holdings, aggregates
// them into time-bucketed cashflow series, and routes edits back into the
// original per-file textual representation.
//
// The at-rest representation is always the raw delimited text: every other
// entity (Transaction, Holding, CashflowPoint, the merged view) is a derived,
// immutable view rebuilt from it on demand. AI-assisted categorization lives
// in the categorize subpackage and writes its results back into the
// aiCategory/aiSubCategory columns of the raw table.
package bankfeed
